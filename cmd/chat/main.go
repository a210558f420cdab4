package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"chatrelay/internal/conversation"
	"chatrelay/internal/service"
	"chatrelay/internal/sse"
)

const defaultRelayURL = "http://localhost:3000"

func main() {
	url := os.Getenv("CHAT_RELAY_URL")
	if url == "" {
		url = defaultRelayURL
	}

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	store := conversation.NewStore()
	chat := service.New(sse.New(url, logger), store, logger)
	chat.Observer = sse.Callbacks{
		OnReasoningStart: func(string) { fmt.Print("[thinking] ") },
		OnReasoningDelta: func(_, delta string) { fmt.Print(delta) },
		OnReasoningEnd:   func(string) { fmt.Println() },
		OnTextDelta:      func(_, delta string) { fmt.Print(delta) },
		OnFinish:         func(string) { fmt.Println() },
		OnError:          func(err error) { fmt.Printf("\nerror: %v\n", err) },
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("connected to %s (/clear resets the conversation, /quit exits)\n", url)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit":
			return
		case line == "/clear":
			chat.Clear()
			fmt.Println("conversation cleared")
			continue
		}

		if err := chat.Send(ctx, line); err != nil {
			fmt.Printf("send failed: %v\n", err)
		}
		if ctx.Err() != nil {
			return
		}
	}
}
