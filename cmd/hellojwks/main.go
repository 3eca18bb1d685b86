package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// client habla con un hellojwks remoto por HTTP.
type client struct {
	BaseURL   string
	OutFormat string // "json" | "text"
	HTTP      *http.Client

	stdout io.Writer
}

func (c *client) do(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	url := strings.TrimRight(c.BaseURL, "/") + path
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, b, nil
}

// expect falla si status no es want, usando el cuerpo de error de la API si lo hay.
func expect(op string, status, want int, body []byte) error {
	if status == want {
		return nil
	}
	var apiErr struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Code != "" {
		return fmt.Errorf("%s fallo: status=%d %s: %s", op, status, apiErr.Code, apiErr.Message)
	}
	return fmt.Errorf("%s fallo: status=%d body=%s", op, status, strings.TrimSpace(string(body)))
}

func (c *client) print(status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Fprintln(c.stdout, string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Fprintln(c.stdout, string(body))
	} else {
		fmt.Fprintf(c.stdout, "status=%d\n", status)
	}
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	cl := &client{
		BaseURL:   envOr("HELLOJWKS_URL", "http://localhost:8080"),
		OutFormat: envOr("HELLOJWKS_OUT", "text"),
		HTTP:      &http.Client{Timeout: 60 * time.Second},
		stdout:    stdout,
	}

	root := &cobra.Command{
		Use:           "hellojwks",
		Short:         "Cliente HTTP para un servicio hellojwks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cl.OutFormat != "json" && cl.OutFormat != "text" {
				return fmt.Errorf("--out debe ser json o text, no %q", cl.OutFormat)
			}
			return nil
		},
	}
	root.SetOut(stdout)
	root.PersistentFlags().StringVar(&cl.BaseURL, "url", cl.BaseURL, "URL base del servicio (env HELLOJWKS_URL)")
	root.PersistentFlags().StringVar(&cl.OutFormat, "out", cl.OutFormat, "Formato de salida: json|text")

	// ping: GET /readyz
	pingCmd := &cobra.Command{
		Use:   "ping",
		Short: "Chequea /readyz",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do(cmd.Context(), http.MethodGet, "/readyz", nil)
			if err != nil {
				return err
			}
			if err := expect("ping", status, http.StatusOK, body); err != nil {
				return err
			}
			if cl.OutFormat == "text" {
				fmt.Fprintln(cl.stdout, "ok")
				return nil
			}
			cl.print(status, body)
			return nil
		},
	}

	// jwks: GET /.well-known/jwks.json
	jwksCmd := &cobra.Command{
		Use:   "jwks",
		Short: "Descarga el JWKS público",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do(cmd.Context(), http.MethodGet, "/.well-known/jwks.json", nil)
			if err != nil {
				return err
			}
			if err := expect("jwks", status, http.StatusOK, body); err != nil {
				return err
			}
			if cl.OutFormat == "text" {
				var set struct {
					Keys []struct {
						Kid string `json:"kid"`
						Alg string `json:"alg"`
						Kty string `json:"kty"`
					} `json:"keys"`
				}
				if err := json.Unmarshal(body, &set); err != nil {
					return fmt.Errorf("jwks: respuesta inválida: %w", err)
				}
				for _, k := range set.Keys {
					fmt.Fprintf(cl.stdout, "%s\t%s\t%s\n", k.Kid, k.Kty, k.Alg)
				}
				return nil
			}
			cl.print(status, body)
			return nil
		},
	}

	// create: POST /jwks
	var alg string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Genera una clave nueva en el servicio",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, _ := json.Marshal(map[string]string{"alg": alg})
			status, body, err := cl.do(cmd.Context(), http.MethodPost, "/jwks", b)
			if err != nil {
				return err
			}
			if err := expect("create", status, http.StatusCreated, body); err != nil {
				return err
			}
			cl.print(status, body)
			return nil
		},
	}
	createCmd.Flags().StringVar(&alg, "alg", "ES256", "Algoritmo: RS256|RS384|RS512|ES256|ES384|ES512|Ed25519|Ed448")

	// get: GET /jwks/{id}
	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Trae una clave con material privado",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("id inválido: %w", err)
			}
			status, body, err := cl.do(cmd.Context(), http.MethodGet, "/jwks/"+id.String(), nil)
			if err != nil {
				return err
			}
			if err := expect("get", status, http.StatusOK, body); err != nil {
				return err
			}
			cl.print(status, body)
			return nil
		},
	}

	// delete: DELETE /jwks/{id}
	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Soft delete de una clave",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("id inválido: %w", err)
			}
			status, body, err := cl.do(cmd.Context(), http.MethodDelete, "/jwks/"+id.String(), nil)
			if err != nil {
				return err
			}
			if err := expect("delete", status, http.StatusNoContent, body); err != nil {
				return err
			}
			fmt.Fprintf(cl.stdout, "deleted %s\n", id)
			return nil
		},
	}

	root.AddCommand(pingCmd, jwksCmd, createCmd, getCmd, deleteCmd)
	return root
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
