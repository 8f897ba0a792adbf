package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adamwoolhether/reqkit/client"
	"github.com/adamwoolhether/reqkit/client/multipart"
)

func (a *app) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <url>",
		Short: "Send a GET request and print the body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session(cmd)
			if err != nil {
				return err
			}

			req, err := client.Get(args[0], s.reqOpts...)
			if err != nil {
				return err
			}

			return s.fetch(cmd, req)
		},
	}
}

func (a *app) sendCmd() *cobra.Command {
	var method, data string

	cmd := &cobra.Command{
		Use:   "send <url>",
		Short: "Send a JSON body with POST, PUT or PATCH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session(cmd)
			if err != nil {
				return err
			}

			req, err := client.JSON(args[0], strings.ToUpper(method), json.RawMessage(data), s.reqOpts...)
			if err != nil {
				return err
			}

			return s.fetch(cmd, req)
		},
	}

	cmd.Flags().StringVarP(&method, "method", "X", http.MethodPost, "HTTP method: POST, PUT or PATCH")
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <url>",
		Short: "Send a DELETE request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session(cmd)
			if err != nil {
				return err
			}

			req, err := client.Delete(args[0], nil, s.reqOpts...)
			if err != nil {
				return err
			}

			return s.fetch(cmd, req)
		},
	}
}

func (a *app) putCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "put <url>",
		Short: "Upload a file as the raw body of a PUT request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session(cmd)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("reading upload: %w", err)
			}

			req, err := client.PutBinary(args[0], data, s.reqOpts...)
			if err != nil {
				return err
			}

			return s.fetch(cmd, req)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Path of the file to upload")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func (a *app) formCmd() *cobra.Command {
	var (
		method     string
		fields     []string
		fileFields []string
	)

	cmd := &cobra.Command{
		Use:   "form <url>",
		Short: "Send a multipart/form-data body",
		Long: `Send a multipart/form-data body built from text and file fields.
Parts are sent in flag order, text fields first.

  --field name=value
  --file-field name=path[;type=mime]`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session(cmd)
			if err != nil {
				return err
			}

			parts := make([]multipart.Field, 0, len(fields)+len(fileFields))
			for _, f := range fields {
				text, err := parseTextField(f)
				if err != nil {
					return err
				}
				parts = append(parts, text)
			}
			for _, f := range fileFields {
				file, err := parseFileField(f)
				if err != nil {
					return err
				}
				parts = append(parts, file)
			}

			req, err := client.Multipart(args[0], strings.ToUpper(method), parts, s.reqOpts...)
			if err != nil {
				return err
			}

			return s.fetch(cmd, req)
		},
	}

	cmd.Flags().StringVarP(&method, "method", "X", http.MethodPost, "HTTP method: POST, PUT or PATCH")
	cmd.Flags().StringArrayVar(&fields, "field", nil, "Text field as name=value, repeatable")
	cmd.Flags().StringArrayVar(&fileFields, "file-field", nil, "File field as name=path[;type=mime], repeatable")

	return cmd
}

func (a *app) imageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "image <url>",
		Short: "Download and decode an image, printing its size",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session(cmd)
			if err != nil {
				return err
			}

			req, err := client.Get(args[0], s.reqOpts...)
			if err != nil {
				return err
			}

			img, err := s.client.Image(cmd.Context(), req, client.WithStatusOK(s.status))
			if err != nil {
				return err
			}

			b := img.Bounds()
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%dx%d\n", b.Dx(), b.Dy())

			return err
		},
	}
}

// parseTextField parses name=value.
func parseTextField(s string) (multipart.Text, error) {
	name, value, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return multipart.Text{}, fmt.Errorf("field[%s] must be name=value", s)
	}

	return multipart.Text{Name: name, Value: value}, nil
}

// parseFileField parses name=path[;type=mime] and reads the file.
func parseFileField(s string) (multipart.File, error) {
	name, rest, ok := strings.Cut(s, "=")
	if !ok || name == "" || rest == "" {
		return multipart.File{}, fmt.Errorf("file field[%s] must be name=path[;type=mime]", s)
	}

	path, contentType, _ := strings.Cut(rest, ";type=")

	data, err := os.ReadFile(path)
	if err != nil {
		return multipart.File{}, fmt.Errorf("reading file field[%s]: %w", name, err)
	}

	return multipart.File{
		Name:        name,
		Filename:    filepath.Base(path),
		ContentType: contentType,
		Data:        data,
	}, nil
}
