package cli

import (
	"github.com/spf13/cobra"

	"github.com/coursetta-labs/coursetta/internal/adapters/driving/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the question answering HTTP API",
	Long: `Starts the HTTP API.

POST /api/ with {"question": "...", "image": "<base64, optional>"} returns
{"answer": "...", "links": [{"text": "...", "url": "..."}]}. Malformed
input gets a 400; backend trouble degrades to an apology answer rather
than an error. GET /healthz reports liveness.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default :8990)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := initServices(); err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = configStore.GetString("server.addr")
	}
	if addr == "" {
		addr = ":8990"
	}

	cmd.Printf("Serving on %s\n", addr)
	return httpapi.NewServer(answerService, addr).Start(cmd.Context())
}
