// Package cli implements the reqkit command line: one command per request
// builder, sharing persistent flags and an optional YAML profile.
package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/adamwoolhether/reqkit/client"
)

// Version is reported in the default User-Agent. It is set at build time.
var Version = "dev"

// Exit codes returned by [Execute].
const (
	// ExitSuccess indicates the call succeeded.
	ExitSuccess = 0

	// ExitRequestFailure indicates the call was sent and failed.
	ExitRequestFailure = 1

	// ExitUsageError indicates invalid flags, arguments or profile.
	ExitUsageError = 64
)

type flags struct {
	configPath string
	token      string
	scheme     string
	lang       string
	status     int
	userAgent  string
	rps        int
	burst      int
	verbose    bool
	noColor    bool
}

type app struct {
	flags flags
}

// NewRootCmd returns the reqkit command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "reqkit",
		Short: "Build, send and classify HTTP requests",
		Long: `reqkit sends a single HTTP request and classifies the response.

A matching status prints the body; any other outcome prints the failure
kind and message and exits non-zero.

Examples:
  reqkit get https://api.example.com/v1/users/1 --token abc
  reqkit send https://api.example.com/v1/users --data '{"name":"alice"}'
  reqkit delete https://api.example.com/v1/users/1 --status 204
  reqkit put https://bucket.example.com/upload?sig=x --file photo.jpg
  reqkit form https://api.example.com/v1/photos --field caption=Sunset --file-field image=photo.jpg
  reqkit image https://cdn.example.com/avatar.png`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configPath, "config", os.Getenv("REQKIT_CONFIG"), "Path to a YAML profile (env: REQKIT_CONFIG)")
	pf.StringVar(&a.flags.token, "token", "", "Credential token sent in the Authorization header")
	pf.StringVar(&a.flags.scheme, "scheme", string(client.SchemeBearer), "Authorization scheme: Bearer or Basic")
	pf.StringVar(&a.flags.lang, "lang", client.DefaultLanguage, "Accept-Language header value")
	pf.IntVar(&a.flags.status, "status", 200, "Status code treated as success")
	pf.StringVar(&a.flags.userAgent, "user-agent", "reqkit/"+Version, "User-Agent header value")
	pf.IntVar(&a.flags.rps, "rps", 0, "Requests per second limit, 0 disables throttling")
	pf.IntVar(&a.flags.burst, "burst", 1, "Burst size when throttling")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "Log request details to stderr")
	pf.BoolVar(&a.flags.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		a.getCmd(),
		a.sendCmd(),
		a.deleteCmd(),
		a.putCmd(),
		a.formCmd(),
		a.imageCmd(),
	)

	return root
}

// Execute runs the command line with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	cmd, err := root.ExecuteContextC(ctx)
	if err == nil {
		return ExitSuccess
	}

	noColor, _ := cmd.Flags().GetBool("no-color")
	printFailure(stderr, err, noColor)

	if _, ok := errors.AsType[*client.Error](err); ok {
		return ExitRequestFailure
	}

	return ExitUsageError
}

// session is the client and request options resolved for one invocation.
type session struct {
	client  *client.Client
	reqOpts []client.RequestOption
	status  int
}

// session merges the profile under the flags and builds the client.
// A flag given on the command line always wins over the profile.
func (a *app) session(cmd *cobra.Command) (*session, error) {
	profile, err := LoadProfile(a.flags.configPath)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	pick := func(name, flag, fromProfile string) string {
		if changed(name) || fromProfile == "" {
			return flag
		}
		return fromProfile
	}

	token := pick("token", a.flags.token, profile.Token)
	scheme := pick("scheme", a.flags.scheme, profile.Scheme)
	lang := pick("lang", a.flags.lang, profile.Lang)
	userAgent := pick("user-agent", a.flags.userAgent, profile.UserAgent)

	rps, burst := a.flags.rps, a.flags.burst
	if !changed("rps") && profile.RPS > 0 {
		rps = profile.RPS
	}
	if !changed("burst") && profile.Burst > 0 {
		burst = profile.Burst
	}

	level := slog.LevelWarn
	if a.flags.verbose {
		level = slog.LevelDebug
	}

	clientOpts := []client.Option{
		client.WithLogger(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))),
		client.WithUserAgent(userAgent),
		client.WithDecoder(rawDecoder{}),
	}
	if rps > 0 {
		clientOpts = append(clientOpts, client.WithThrottle(rps, burst))
	}

	c, err := client.Build(clientOpts...)
	if err != nil {
		return nil, err
	}

	reqOpts := []client.RequestOption{client.WithLanguage(lang)}
	for _, key := range slices.Sorted(maps.Keys(profile.Headers)) {
		reqOpts = append(reqOpts, client.WithHeader(key, profile.Headers[key]))
	}
	if token != "" {
		reqOpts = append(reqOpts, client.WithCredential(client.Credential{Scheme: client.Scheme(scheme), Token: token}))
	}

	return &session{client: c, reqOpts: reqOpts, status: a.flags.status}, nil
}

// fetch executes req and prints the success body.
func (s *session) fetch(cmd *cobra.Command, req *client.Request) error {
	res, err := client.Fetch[[]byte](cmd.Context(), s.client, req, client.WithStatusOK(s.status))
	if err != nil {
		return err
	}

	return printBody(cmd.OutOrStdout(), res.Value)
}

// rawDecoder hands success bodies over untouched and decodes everything
// else, such as failure envelopes, as JSON.
type rawDecoder struct {
	client.JSONCodec
}

func (d rawDecoder) Unmarshal(data []byte, v any) error {
	if raw, ok := v.(*[]byte); ok {
		*raw = slices.Clone(data)
		return nil
	}

	return d.JSONCodec.Unmarshal(data, v)
}
