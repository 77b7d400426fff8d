package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"airender/internal/bridge"
	"airender/internal/capture"
	"airender/internal/models"
)

type GenerateOptions struct {
	Prompt      string
	Image       string
	Count       int
	Mode        string
	Resolution  string
	AspectRatio string
	Contrast    int
	LongEdge    int
}

func addGenerate(topLevel *cobra.Command, g *GlobalOptions) {
	o := &GenerateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Render a reference image once with the configured provider",
		Example: `
renderctl generate --image viewport.png --prompt "scandinavian living room, morning light" --count 2
`,
		Args: func(cmd *cobra.Command, args []string) error {
			if o.Prompt == "" && len(args) > 0 {
				o.Prompt = strings.Join(args, " ")
			}
			if strings.TrimSpace(o.Prompt) == "" {
				return errors.New("requires a prompt")
			}
			if o.Image == "" {
				return errors.New("requires --image")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := g.build(&capture.FileHost{ReferencePath: o.Image})
			if err != nil {
				return err
			}
			defer eng.Close()

			failed := false
			out := cmd.OutOrStdout()
			eng.Bridge.Attach(cmd.Context(), bridge.TransportFunc(func(_ context.Context, m bridge.Message) error {
				if m.Type == bridge.MsgError {
					failed = true
				}
				return printMessage(out, m)
			}))
			eng.Bridge.MarkReady()

			req := o.request(cmd.Flags().Changed("contrast"))
			data, err := json.Marshal(req)
			if err != nil {
				return err
			}
			eng.Handle(cmd.Context(), bridge.Envelope{Type: bridge.CmdGenerate, Data: data})
			eng.Dispatcher.Wait()

			if failed {
				return errors.New("generation failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&o.Prompt, "prompt", "p", "", "Prompt text.")
	cmd.Flags().StringVarP(&o.Image, "image", "i", "", "Reference image (PNG or JPEG).")
	cmd.Flags().IntVarP(&o.Count, "count", "n", 1, "Number of images.")
	cmd.Flags().StringVar(&o.Mode, "mode", "pro", "Tier: pro or flash.")
	cmd.Flags().StringVar(&o.Resolution, "resolution", "1K", "Output resolution for pro: 1K, 2K or 4K.")
	cmd.Flags().StringVar(&o.AspectRatio, "aspect", "", "Aspect ratio hint such as 16:9.")
	cmd.Flags().IntVar(&o.Contrast, "contrast", models.DefaultContrastAdjust, "Contrast adjustment for flash, -100..0.")
	cmd.Flags().IntVar(&o.LongEdge, "long-edge", 0, "Capture long edge in pixels.")
	topLevel.AddCommand(cmd)
}

func (o *GenerateOptions) request(contrastSet bool) models.GenerateRequest {
	req := models.GenerateRequest{
		Prompt:      o.Prompt,
		Source:      models.SourceActive,
		Count:       o.Count,
		Mode:        models.Tier(strings.ToLower(o.Mode)),
		Resolution:  o.Resolution,
		AspectRatio: o.AspectRatio,
		LongEdge:    o.LongEdge,
		CaptureMode: models.CaptureCustom,
	}
	if contrastSet {
		c := o.Contrast
		req.ContrastAdjust = &c
	}
	return req
}

// printMessage writes one line per outbound message, leaving out image data.
func printMessage(w io.Writer, m bridge.Message) error {
	var line string
	switch d := m.Data.(type) {
	case bridge.ProgressPayload:
		line = fmt.Sprintf("[%s] %s", d.Stage, d.Message)
	case bridge.GenerateResultPayload:
		line = fmt.Sprintf("done: %d image(s) from %s %s\n  %s", len(d.Images), d.Meta.Provider, d.Meta.Model, strings.Join(d.Paths, "\n  "))
	case bridge.ErrorPayload:
		line = "error: " + d.Message
		if d.Details != "" {
			line += " (" + d.Details + ")"
		}
	case bridge.HistoryUpdatePayload:
		return nil
	default:
		b, err := json.Marshal(m)
		if err != nil {
			return err
		}
		line = string(b)
	}
	_, err := fmt.Fprintln(w, line)
	return err
}
