package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"processmate/processmate/controllers"
	"processmate/processmate/prompts"
	"processmate/processmate/services/assembler"
	"processmate/processmate/types"
	"processmate/processmate/utils/color"
	httputils "processmate/processmate/utils/http"
	"processmate/processmate/utils/logging"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type askOptions struct {
	mode           string
	model          string
	temperature    float64
	maxTokens      int
	conversationID string
	raw            bool
}

func newAskCmd(newProvider providerFactory) *cobra.Command {
	var opts askOptions

	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Send one message and print the relayed response",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if opts.mode != "" {
				mode, err := types.ParseMode(opts.mode)
				if err != nil {
					return err
				}
				cfg.Chat.Mode = mode
			}

			if err := logging.InitLogger(logging.Options{Dir: cfg.Log.Dir, Level: cfg.Log.Level}); err != nil {
				return err
			}
			defer logging.Sync()

			promptSet, err := prompts.Load(cfg.Chat.PromptsFile)
			if err != nil {
				return err
			}
			ctrl := controllers.NewChatController(newProvider(cfg.OpenAI), promptSet, cfg.Chat)

			req := types.ChatRequest{
				Message:        strings.Join(args, " "),
				ConversationID: opts.conversationID,
			}
			if req.ConversationID == "" {
				req.ConversationID = "cli-" + uuid.NewString()[:8]
			}
			flags := cmd.Flags()
			if flags.Changed("model") {
				req.Model = &opts.model
			}
			if flags.Changed("temperature") {
				req.Temperature = &opts.temperature
			}
			if flags.Changed("max-tokens") {
				req.MaxTokens = &opts.maxTokens
			}

			out := &chunkPrinter{out: cmd.OutOrStdout(), mode: ctrl.Mode(), raw: opts.raw}
			ctx := logging.WithTraceID(cmd.Context(), req.ConversationID)
			if _, err := ctrl.Chat(ctx, req, out); err != nil {
				if errors.Is(err, assembler.ErrUpstreamStream) {
					return fmt.Errorf("response interrupted: %w", err)
				}
				return err
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.mode, "mode", "", "relay mode, strict or lenient (default from config)")
	f.StringVar(&opts.model, "model", "", "model name (default from config)")
	f.Float64Var(&opts.temperature, "temperature", 0, "sampling temperature (default from config)")
	f.IntVar(&opts.maxTokens, "max-tokens", 0, "maximum completion tokens (default from config)")
	f.StringVar(&opts.conversationID, "conversation-id", "", "conversation id (default a fresh cli-* id)")
	f.BoolVar(&opts.raw, "raw", false, "print data: lines exactly as the HTTP route sends them")
	return cmd
}

// chunkPrinter is an assembler.Sink writing to a terminal.
type chunkPrinter struct {
	out  io.Writer
	mode types.Mode
	raw  bool
}

func (p *chunkPrinter) Send(chunk types.StreamChunk) error {
	if p.raw {
		line, err := httputils.EncodeDataLine(chunk)
		if err != nil {
			return err
		}
		_, err = p.out.Write(line)
		return err
	}
	if p.mode == types.ModeLenient {
		if chunk.IsComplete {
			_, err := fmt.Fprintln(p.out)
			return err
		}
		_, err := fmt.Fprint(p.out, color.ColorResponse(chunk.Content))
		return err
	}

	resp, err := types.ParseStructuredResponse(chunk.Content)
	if err != nil {
		_, err = fmt.Fprintln(p.out, chunk.Content)
		return err
	}
	_, err = io.WriteString(p.out, renderStructured(resp))
	return err
}
