package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/andy6609/relay-chat-server/internal/chat"
	"github.com/andy6609/relay-chat-server/internal/client"
)

func main() {
	host := flag.String("host", "127.0.0.1", "chat server address")
	port := flag.Int("p", 5555, "chat server port")
	framing := flag.String("framing", chat.FramingChunk, "message framing, must match the server: chunk|line")
	flag.Parse()

	if err := run(net.JoinHostPort(*host, strconv.Itoa(*port)), *framing); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(addr, framing string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tr, err := client.Dial(ctx, addr, client.WithFraming(framing))
	if err != nil {
		return err
	}
	defer tr.Close()

	stdin := bufio.NewScanner(os.Stdin)
	greeting, err := tr.ReadGreeting()
	if err != nil {
		return err
	}
	fmt.Print(greeting)

	var name string
	for name == "" && stdin.Scan() {
		name = stdin.Text()
	}
	if name == "" {
		return nil
	}
	if err := tr.Register(name); err != nil {
		return err
	}
	prompt := name + "> "

	go func() {
		_ = tr.Receive(ctx, client.HandlerFuncs{
			Message: func(text string) { fmt.Printf("\r%s\n%s", text, prompt) },
			Error:   func(err error) { fmt.Fprintf(os.Stderr, "\rconnection error: %v\n", err) },
		})
		stop()
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		for stdin.Scan() {
			lines <- stdin.Text()
		}
	}()

	fmt.Print(prompt)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok || client.IsQuit(line) {
				return tr.Quit()
			}
			if line != "" {
				if err := tr.Send(line); err != nil {
					return err
				}
			}
			fmt.Print(prompt)
		}
	}
}
