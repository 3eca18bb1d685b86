package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/dropDatabas3/hellojwks/internal/app"
	"github.com/dropDatabas3/hellojwks/internal/cache"
	"github.com/dropDatabas3/hellojwks/internal/config"
	"github.com/dropDatabas3/hellojwks/internal/domain/repository"
	"github.com/dropDatabas3/hellojwks/internal/jwk"
	"github.com/dropDatabas3/hellojwks/internal/keystore"
	"github.com/dropDatabas3/hellojwks/internal/observability/logger"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type cli struct {
	configPath string
	envFile    string
	out        string // "json" | "text"

	stdout io.Writer
	c      *app.Container
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	cl := &cli{stdout: stdout}

	root := &cobra.Command{
		Use:           "keys",
		Short:         "Administración de claves JWKS contra el store configurado",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cl.open(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if cl.c != nil {
				cl.c.Close()
			}
		},
	}
	root.PersistentFlags().StringVar(&cl.configPath, "config", "configs/config.yaml", "ruta a config.yaml (opcional)")
	root.PersistentFlags().StringVar(&cl.envFile, "env-file", ".env", "ruta a .env (opcional)")
	root.PersistentFlags().StringVar(&cl.out, "out", "text", "Formato de salida: json|text")

	root.AddCommand(
		cl.generateCmd(),
		cl.listCmd(),
		cl.getCmd(),
		cl.inspectCmd(),
		cl.deleteCmd(),
	)
	return root
}

func (cl *cli) open(ctx context.Context) error {
	if cl.out != "json" && cl.out != "text" {
		return fmt.Errorf("--out debe ser json o text, no %q", cl.out)
	}
	if cl.envFile != "" {
		_ = godotenv.Load(cl.envFile)
	}
	cfg, err := config.Load(cl.configPath)
	if err != nil {
		return err
	}
	logger.Init(logger.Config{Env: cfg.App.Env, Level: "warn", ServiceName: "hellojwks-keys"})

	// Solo redis tiene sentido desde un proceso de vida corta: invalida el
	// documento que sirve el servicio.
	c, err := app.New(ctx, cfg, app.Options{SkipCache: cfg.Cache.Kind != cache.DriverRedis})
	if err != nil {
		return err
	}
	cl.c = c
	return nil
}

// =================================================================================
// COMMANDS
// =================================================================================

func (cl *cli) generateCmd() *cobra.Command {
	var (
		alg   string
		count int
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Genera y persiste claves nuevas",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := jwk.ParseAlgorithm(alg); err != nil {
				return err
			}
			if count < 1 {
				return fmt.Errorf("--count debe ser >= 1")
			}
			recs, err := cl.generate(cmd.Context(), alg, count)
			if err != nil {
				return err
			}
			return cl.printRecords(recs)
		},
	}
	cmd.Flags().StringVar(&alg, "alg", "ES256", "Algoritmo: RS256|RS384|RS512|ES256|ES384|ES512|Ed25519|Ed448")
	cmd.Flags().IntVar(&count, "count", 1, "Cantidad de claves a generar en paralelo")
	return cmd
}

// generate lanza count generaciones independientes; la primera falla cancela el resto.
func (cl *cli) generate(ctx context.Context, alg string, count int) ([]*repository.Record, error) {
	var (
		mu   sync.Mutex
		recs = make([]*repository.Record, 0, count)
	)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < count; i++ {
		g.Go(func() error {
			rec, err := cl.c.Manager.Create(gctx, alg)
			if err != nil {
				return err
			}
			mu.Lock()
			recs = append(recs, rec)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return recs, err
	}
	return recs, nil
}

func (cl *cli) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Lista todas las claves con su estado (incluye borradas y expiradas)",
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := cl.c.Manager.InspectAll(cmd.Context())
			if err != nil {
				return err
			}
			return cl.printInspections(all)
		},
	}
}

func (cl *cli) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Devuelve la clave con material privado (si sigue disponible)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("id inválido: %w", err)
			}
			rec, err := cl.c.Manager.GetPrivate(cmd.Context(), id)
			if err != nil {
				return err
			}
			return cl.printRecords([]*repository.Record{rec})
		},
	}
}

func (cl *cli) inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <id>",
		Short: "Muestra cualquier clave y su estado, sin material privado",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("id inválido: %w", err)
			}
			in, err := cl.c.Manager.Inspect(cmd.Context(), id)
			if err != nil {
				return err
			}
			return cl.printInspections([]*keystore.Inspection{in})
		},
	}
}

func (cl *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Soft delete de una clave (terminal)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("id inválido: %w", err)
			}
			if err := cl.c.Manager.Delete(cmd.Context(), id); err != nil {
				return err
			}
			if cl.out == "json" {
				return cl.printJSON(map[string]any{"id": id.String(), "deleted": true})
			}
			fmt.Fprintf(cl.stdout, "deleted %s\n", id)
			return nil
		},
	}
}

// =================================================================================
// OUTPUT
// =================================================================================

type inspectionView struct {
	ID                  string     `json:"id"`
	Kid                 string     `json:"kid"`
	Alg                 string     `json:"alg"`
	State               string     `json:"state"`
	CreatedAt           time.Time  `json:"created_at"`
	PrivateKeyExpiresAt *time.Time `json:"private_key_expires_at,omitempty"`
	KeyExpiresAt        *time.Time `json:"key_expires_at,omitempty"`
	DeletedAt           *time.Time `json:"deleted_at,omitempty"`
}

func (cl *cli) printInspections(all []*keystore.Inspection) error {
	views := make([]inspectionView, 0, len(all))
	for _, in := range all {
		r := in.Record
		views = append(views, inspectionView{
			ID:                  r.ID.String(),
			Kid:                 r.Kid,
			Alg:                 r.Alg,
			State:               in.State.String(),
			CreatedAt:           r.CreatedAt,
			PrivateKeyExpiresAt: r.PrivateKeyExpiresAt,
			KeyExpiresAt:        r.KeyExpiresAt,
			DeletedAt:           r.DeletedAt,
		})
	}
	if cl.out == "json" {
		return cl.printJSON(views)
	}

	tw := tabwriter.NewWriter(cl.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKID\tALG\tSTATE\tCREATED\tPRIVATE UNTIL\tPUBLIC UNTIL")
	for _, v := range views {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			v.ID, v.Kid, v.Alg, v.State,
			v.CreatedAt.Format(time.RFC3339), fmtTime(v.PrivateKeyExpiresAt), fmtTime(v.KeyExpiresAt))
	}
	return tw.Flush()
}

func (cl *cli) printRecords(recs []*repository.Record) error {
	if cl.out == "json" {
		return cl.printJSON(recs)
	}
	tw := tabwriter.NewWriter(cl.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKID\tKTY\tALG\tCRV")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Kid, r.Kty, r.Alg, orDash(r.Crv))
	}
	return tw.Flush()
}

func (cl *cli) printJSON(v any) error {
	enc := json.NewEncoder(cl.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func fmtTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.RFC3339)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
