package cli

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/coursetta-labs/coursetta/internal/core/domain"
)

var askImagePath string

var (
	answerStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			Width(80)
	sourceHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				PaddingLeft(2).
				MarginTop(1)
	sourceStyle = lipgloss.NewStyle().
			PaddingLeft(4).
			Foreground(lipgloss.Color("12"))
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about the course",
	Long: `Answers a question from the ingested course material, citing the
pages and forum posts the answer is grounded on. Attach a screenshot or
diagram with --image.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askImagePath, "image", "i", "", "path to an image to attach (png, jpeg, webp or gif)")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := initServices(); err != nil {
		return err
	}

	question := strings.Join(args, " ")

	var imageBase64 string
	if askImagePath != "" {
		data, err := os.ReadFile(askImagePath)
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}
		imageBase64 = base64.StdEncoding.EncodeToString(data)
	}

	answer, err := answerService.Ask(cmd.Context(), question, imageBase64)
	if err != nil {
		return err
	}

	cmd.Println(renderAnswer(answer))
	return nil
}

// renderAnswer formats an answer and its sources for the terminal.
func renderAnswer(answer domain.Answer) string {
	var b strings.Builder
	b.WriteString(answerStyle.Render(answer.Text))

	if len(answer.Links) > 0 {
		b.WriteString("\n")
		b.WriteString(sourceHeaderStyle.Render("Sources"))
		for _, link := range answer.Links {
			b.WriteString("\n")
			b.WriteString(sourceStyle.Render(fmt.Sprintf("%s (%s)", link.Title, link.URL)))
		}
	}
	return b.String()
}
