package cli

import (
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	apix "github.com/tanpawarit/Chative-Support-Router/api"
	configx "github.com/tanpawarit/Chative-Support-Router/pkg/config"
)

func ServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := configx.New[apix.Config]("SERVER")
			if err != nil {
				return err
			}
			gin.SetMode(cfg.Mode)

			rt, err := buildRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			router, err := apix.NewRouter(apix.Deps{
				Assistant:         rt.assistant,
				Invoker:           rt.invoker,
				ToolServer:        rt.invoker,
				Gatherer:          rt.registry,
				CheckpointBackend: rt.backend,
			})
			if err != nil {
				return err
			}
			return apix.Serve(ctx, *cfg, router)
		},
	}
}
