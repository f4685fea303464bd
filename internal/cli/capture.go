package cli

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/relook-app/relook/internal/domain"
)

func init() {
	captureCmd.Flags().StringVarP(&captureFile, "file", "f", "", "Capture an image or audio file")
	captureCmd.Flags().StringVar(&captureMIME, "mime", "", "MIME type of --file (detected when empty)")
	rootCmd.AddCommand(captureCmd)
}

var (
	captureFile string
	captureMIME string
)

var captureCmd = &cobra.Command{
	Use:   "capture [TEXT...]",
	Short: "Save a snippet and earn XP",
	Long: `Save text, a screenshot or a voice memo. The content is classified,
filed into a deck when it matches one, and rewarded with XP.`,
	Example: `  relook capture "Go meetup next Thursday 18:30 at the library"
  relook capture --file ~/Desktop/menu.png`,
	RunE: runCapture,
}

func runCapture(cmd *cobra.Command, args []string) error {
	in := domain.Input{Text: strings.Join(args, " ")}
	if captureFile != "" {
		data, err := os.ReadFile(captureFile)
		if err != nil {
			return fmt.Errorf("read %s: %w", captureFile, err)
		}
		in.Data = data
		in.MIMEType = captureMIME
		if in.MIMEType == "" {
			in.MIMEType = detectMIME(captureFile, data)
		}
	}

	b, err := openBackend()
	if err != nil {
		return err
	}
	defer b.Close()

	res, err := b.Capture(context.Background(), in)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s %s %s\n",
		titleStyle.Render("Saved"),
		res.Item.Title,
		mutedStyle.Render(fmt.Sprintf("(%s, %s)", res.Item.ContentType, shortID(res.Item.ID))))
	if !res.Classified {
		fmt.Fprintln(w, mutedStyle.Render("  not classified; saved as a note"))
	}
	printEffects(w, res.Effects)
	return nil
}

// detectMIME prefers the file extension and falls back to sniffing.
func detectMIME(path string, data []byte) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); t != "" {
		return t
	}
	return http.DetectContentType(data)
}
