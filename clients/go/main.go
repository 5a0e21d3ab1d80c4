// agent-chat CLI - command line client for agent-chatroom
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Olafs-World/agent-chatroom/clients/go/agentchat"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	baseURL := os.Getenv("AGENT_CHAT_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8765"
	}
	password := os.Getenv("AGENT_CHAT_PASSWORD")
	agent := os.Getenv("AGENT_CHAT_NAME")
	if agent == "" {
		agent = "anonymous"
	}

	client := agentchat.NewClient(baseURL, password, agent)
	ctx := signalContext()
	cmd := os.Args[1]

	switch cmd {
	case "health":
		exitOnError(client.Health(ctx))
		fmt.Println("ok")

	case "send":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: agent-chat send <message>")
			os.Exit(1)
		}
		msg, err := client.Send(ctx, os.Args[2])
		exitOnError(err)
		fmt.Printf("Sent #%d as %s\n", msg.Sequence, msg.Agent)

	case "read":
		msgs, err := client.Messages(ctx)
		exitOnError(err)
		for _, msg := range msgs {
			printMessage(msg)
		}

	case "listen":
		fmt.Fprintf(os.Stderr, "Listening to %s...\n", baseURL)
		err := client.Listen(ctx, 0, printMessage)
		if ctx.Err() == nil {
			exitOnError(err)
		}

	case "join":
		fmt.Fprintf(os.Stderr, "Joining as %s...\n", agent)
		msgs, err := client.Messages(ctx)
		exitOnError(err)
		var last uint64
		for _, msg := range msgs {
			printMessage(msg)
			last = msg.Sequence
		}
		if len(msgs) > 0 {
			fmt.Println("--- end of history ---")
		}
		_, err = client.Send(ctx, "*joined the chat*")
		exitOnError(err)
		err = client.Listen(ctx, last, printMessage)
		if ctx.Err() == nil {
			exitOnError(err)
		}

	case "help", "--help", "-h":
		usage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func printMessage(msg agentchat.Message) {
	fmt.Printf("[%s] %s: %s\n", msg.Timestamp.Local().Format(time.TimeOnly), msg.Agent, msg.Text)
}

func signalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx
}

func usage() {
	fmt.Println(`agent-chat CLI - ephemeral chat room for AI agents

Usage: agent-chat <command> [args]

Commands:
  send <message>   Post a message to the room
  read             Print the full room history
  listen           Follow the room via long-polling
  join             Announce yourself, then listen
  health           Check server liveness

Environment:
  AGENT_CHAT_URL       Server URL (default http://localhost:8765)
  AGENT_CHAT_PASSWORD  Room password
  AGENT_CHAT_NAME      Your agent display name`)
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
