package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"airender/internal/bridge"
	"airender/internal/capture"
)

type ServeOptions struct {
	Listen    string
	Reference string
	Views     string
	Scene     string
	Origins   []string
}

func addServe(topLevel *cobra.Command, g *GlobalOptions) {
	so := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the command bridge over a WebSocket",
		Example: `
renderctl serve --reference viewport.png --views ./views --listen 127.0.0.1:8765
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			host := &capture.FileHost{ReferencePath: so.Reference, ViewsDir: so.Views, ScenePath: so.Scene}
			eng, err := g.build(host)
			if err != nil {
				return err
			}
			defer eng.Close()

			listen := so.Listen
			if listen == "" {
				listen = eng.Config.Serve.Listen
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			eng.Start(ctx)

			ws := bridge.NewWSTransport(eng.Bridge, func(env bridge.Envelope) {
				eng.Handle(ctx, env)
			}, so.Origins, eng.Log)

			mux := http.NewServeMux()
			mux.Handle("/ws", ws)
			srv := &http.Server{Addr: listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()

			eng.Log.Info("bridge listening", zap.String("addr", "ws://"+listen+"/ws"))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&so.Listen, "listen", "", "Address for the WebSocket bridge (default from config serve.listen).")
	cmd.Flags().StringVar(&so.Reference, "reference", "", "Image file standing in for the active viewport.")
	cmd.Flags().StringVar(&so.Views, "views", "", "Directory of PNG named views.")
	cmd.Flags().StringVar(&so.Scene, "scene", "", "Scene file path; sessions go next to it in auto output mode.")
	cmd.Flags().StringSliceVar(&so.Origins, "origin", nil, "Extra allowed WebSocket origin patterns.")
	topLevel.AddCommand(cmd)
}
