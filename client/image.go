package client

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// ImageDecoder converts a successful response body into an image.
type ImageDecoder interface {
	Decode(data []byte) (image.Image, error)
}

// ImageDecoderFunc adapts a function to [ImageDecoder].
type ImageDecoderFunc func(data []byte) (image.Image, error)

func (f ImageDecoderFunc) Decode(data []byte) (image.Image, error) {
	return f(data)
}

// StdImageDecoder decodes the JPEG, PNG and GIF formats registered with
// the standard library.
var StdImageDecoder ImageDecoder = ImageDecoderFunc(func(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
})

// Image executes req and decodes the body with the configured
// [ImageDecoder]. A body that is not a decodable image fails with
// KindInvalidPayload.
func (c *Client) Image(ctx context.Context, req *Request, opts ...DoOption) (image.Image, error) {
	settings, err := applyDoOpts(opts)
	if err != nil {
		return nil, err
	}

	var img image.Image
	imgFunc := func(_ int, body []byte) error {
		decoded, err := c.imageDecoder.Decode(body)
		if err != nil {
			return &Error{Kind: KindInvalidPayload, Err: err}
		}
		img = decoded

		return nil
	}

	if _, err := c.exec(ctx, req, settings.statusOK, imgFunc); err != nil {
		return nil, err
	}

	return img, nil
}
