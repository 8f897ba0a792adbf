// Package client builds outgoing HTTP requests, executes them and
// classifies every response into a decoded value or a typed [*Error].
//
// # Building a Client
//
// Use [Build] to create a [Client] with functional options:
//
//	c, err := client.Build(
//		client.WithTimeout(10 * time.Second),
//		client.WithUserAgent("myapp/1.0"),
//		client.WithLogger(logger),
//	)
//
// # Building Requests
//
// One builder exists per HTTP semantic. Each applies the same header
// policy: Accept-Language defaults to "en", Authorization is set only when
// a [Credential] is supplied, and every request carries [DefaultTimeout].
//
//	req, err := client.Get(url, client.WithCredential(client.Bearer(token)))
//	req, err := client.JSON(url, http.MethodPost, payload, client.WithLanguage("es"))
//	req, err := client.Delete(url, nil)
//	req, err := client.PutBinary(presignedURL, data)
//	req, err := client.Multipart(url, http.MethodPost, fields)
//
// # Executing Requests
//
// [Fetch] decodes the body of a matching response into a typed value;
// [Client.Do] is the variant for calls with no payload to decode:
//
//	res, err := client.Fetch[User](ctx, c, req)
//	err = c.Do(ctx, req, client.WithStatusOK(http.StatusCreated))
//
// # Handling Failures
//
// Every failure is an [*Error] whose [Kind] tells a transport failure, a
// non-HTTP response, a status mismatch, a decode failure, or a
// server-supplied failure envelope apart:
//
//	if reason, ok := client.Reason(err); ok {
//		// show the server message to the user as-is
//	}
//	if errors.Is(err, client.ErrAuthFailure) { ... }
package client
