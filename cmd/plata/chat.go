package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/lucasreyna/plata-advisor/internal/advisor"
)

// runChat is an interactive REPL over one conversation. Feedback can be
// given inline: "/util" marks the last response useful, "/inutil" marks
// it not useful, "/stats" shows classifier statistics, "/salir" exits.
func runChat(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, configPath string) error {
	cfg, cfgPath, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	engine, cleanup, err := setup(ctx, stderr, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Fprintf(stdout, "plata chat (config: %s) — escribe /salir para terminar\n\n", cfgPath)

	var lastMessage string
	var lastResponseType string

	scanner := bufio.NewScanner(stdin)
	for {
		fmt.Fprint(stdout, "tú> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/salir", "/exit", "/quit":
			return scanner.Err()
		case "/stats":
			if err := printChatStats(stdout, engine); err != nil {
				return err
			}
			continue
		case "/util", "/inutil":
			if lastMessage == "" {
				fmt.Fprintln(stdout, "no hay respuesta que calificar todavía")
				continue
			}
			label := "useful"
			if line == "/inutil" {
				label = "not useful"
			}
			receipt, err := engine.RecordFeedback(ctx, lastMessage, lastResponseType, label)
			if err != nil {
				fmt.Fprintf(stdout, "no se pudo registrar: %v\n", err)
				continue
			}
			fmt.Fprintf(stdout, "gracias — feedback #%d registrado\n", receipt.Total)
			continue
		}

		result := engine.Process(ctx, advisor.Request{
			UserID:         "cli",
			ConversationID: "chat",
			Message:        line,
		})

		fmt.Fprintf(stdout, "\nplata> %s\n", result.Response.Message)
		if result.Response.Disclaimer != "" {
			fmt.Fprintf(stdout, "— %s\n", result.Response.Disclaimer)
		}
		for _, q := range result.Response.FollowUpQuestions {
			fmt.Fprintf(stdout, "  · %s\n", q)
		}
		fmt.Fprintln(stdout)

		lastMessage = line
		lastResponseType = string(result.Response.Type)
	}

	return scanner.Err()
}

func printChatStats(w io.Writer, engine *advisor.Engine) error {
	stats := engine.Statistics()
	fmt.Fprintf(w, "feedback: %d, útil: %.0f%%, modelo entrenado: %v\n",
		stats.TotalConversations, stats.HelpfulnessRate*100, stats.ModelTrained)
	return nil
}
