package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/arnvid/norsechat/internal/style"
)

const banner = `
    _   __                     ________          __
   / | / /___  _____________  / ____/ /_  ____ _/ /_
  /  |/ / __ \/ ___/ ___/ _ \/ /   / __ \/ __ ` + "`" + `/ __/
 / /|  / /_/ / /  (__  )  __/ /___/ / / / /_/ / /_
/_/ |_/\____/_/  /____/\___/\____/_/ /_/\__,_/\__/
`

const helpText = `commands:
	%r - display the list of rooms
	%a - display a list of all users
	%u - display the list of users in this room
	%t - display the list of rooms and of all users
	%p - send a private message: %p <username> <message>
	%c - change rooms %c <room_name>
	%q - quit`

func main() {
	cmd := &cobra.Command{
		Use:           "norsechat-client <host> <port>",
		Short:         "Terminal client for the norsechat relay",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, args []string) error {
			return run(args[0], args[1])
		},
	}
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(host, port string) error {
	fmt.Println(style.Banner(banner))
	fmt.Println("Welcome to the chat of the norsemen!")

	conn, err := net.Dial("tcp", net.JoinHostPort(host, port))
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	stdin := bufio.NewScanner(os.Stdin)

	fmt.Print("Enter your username: ")
	if !stdin.Scan() {
		return stdin.Err()
	}
	name := firstToken(stdin.Text())
	if _, err := fmt.Fprintln(conn, name); err != nil {
		return fmt.Errorf("send username: %w", err)
	}

	// A quit notice on Ctrl+C gives the room its disconnect message.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		_, _ = fmt.Fprintln(conn, "%q")
		fmt.Println()
		os.Exit(0)
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		server := bufio.NewScanner(conn)
		for server.Scan() {
			fmt.Println(server.Text())
		}
	}()

	fmt.Println(helpText)

	for stdin.Scan() {
		line := stdin.Text()
		// %? is handled locally; the server never sees it.
		if strings.TrimSpace(line) == "%?" {
			fmt.Println(helpText)
			continue
		}
		if _, err := fmt.Fprintln(conn, line); err != nil {
			return fmt.Errorf("send: %w", err)
		}
		if strings.HasPrefix(line, "%q") {
			return nil
		}
	}

	<-done
	return stdin.Err()
}

func firstToken(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
