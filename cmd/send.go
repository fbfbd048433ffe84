package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/killallgit/loom/pkg/session"
	"github.com/killallgit/loom/pkg/streaming"
)

var (
	sendServer string
	sendThread string
)

var sendCmd = &cobra.Command{
	Use:   "send [message]",
	Short: "Send one turn to a running server",
	Long: `Sends a user turn to the session server and prints the streamed
response. Without --thread a new conversation is started and its id printed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := session.NewClient(sendServer)
		content := strings.Join(args, " ")

		return client.SendTurn(context.Background(), sendThread, content, printFrame)
	},
}

func printFrame(event session.ClientEvent) error {
	switch event.Event {
	case "started":
		var data map[string]string
		if err := json.Unmarshal(event.Data, &data); err == nil && sendThread == "" {
			fmt.Fprintf(os.Stderr, "thread: %s\n", data["thread_id"])
		}

	case streaming.FrameTokenDelta:
		var data streaming.TokenDeltaData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return fmt.Errorf("parsing token frame: %w", err)
		}
		fmt.Print(data.Text)

	case streaming.FrameToolStarted:
		var data streaming.ToolStartedData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return fmt.Errorf("parsing tool frame: %w", err)
		}
		fmt.Fprintf(os.Stderr, "\n[tool] %s running...\n", data.ToolName)

	case streaming.FrameToolFinished:
		var data streaming.ToolFinishedData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return fmt.Errorf("parsing tool frame: %w", err)
		}
		fmt.Fprintf(os.Stderr, "[tool] %s -> %s\n", data.ToolName, data.Result)

	case streaming.FrameToolFailed:
		var data streaming.ToolFailedData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return fmt.Errorf("parsing tool frame: %w", err)
		}
		fmt.Fprintf(os.Stderr, "[tool] %s failed: %s\n", data.ToolName, data.Error)

	case streaming.FrameTurnComplete:
		fmt.Println()

	case streaming.FrameTurnError:
		var data streaming.TurnErrorData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return fmt.Errorf("parsing error frame: %w", err)
		}
		return fmt.Errorf("turn failed [%s]: %s", data.Code, data.Message)
	}
	return nil
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show a thread's conversation history",
	RunE: func(cmd *cobra.Command, args []string) error {
		if sendThread == "" {
			return fmt.Errorf("--thread is required")
		}

		client := session.NewClient(sendServer)
		history, err := client.History(context.Background(), sendThread)
		if err != nil {
			return err
		}

		for _, msg := range history.Messages {
			switch {
			case msg.HasToolCalls():
				for _, call := range msg.ToolCalls {
					fmt.Printf("%s: [calls %s]\n", msg.Role, call.Name)
				}
			case msg.IsTool():
				fmt.Printf("%s(%s): %s\n", msg.Role, msg.ToolName, msg.Content)
			default:
				fmt.Printf("%s: %s\n", msg.Role, msg.Content)
			}
		}
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{sendCmd, historyCmd} {
		cmd.Flags().StringVarP(&sendServer, "server", "s", "http://127.0.0.1:8420", "session server address")
		cmd.Flags().StringVarP(&sendThread, "thread", "t", "", "thread id to continue")
	}
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(historyCmd)
}
