// Command callsim is an interactive terminal caller for a running agent.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

const defaultGreeting = "Hello, thank you for calling our health center. Can you verify your name?"

func main() {
	baseURL := flag.String("url", "http://localhost:5001", "agent base URL")
	phone := flag.String("phone", "215-932-4488", "caller phone number")
	mode := flag.String("mode", "http", "transport: http (POST /run_agent) or ws (live call socket)")
	flag.Parse()

	if err := run(*baseURL, *phone, *mode, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(baseURL, phone, mode string, in io.Reader, out io.Writer) error {
	var s session
	switch mode {
	case "http":
		s = newHTTPSession(baseURL, phone, defaultGreeting)
	case "ws":
		ws, err := dialCall(baseURL, phone)
		if err != nil {
			return err
		}
		s = ws
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
	defer s.Close()

	fmt.Fprintf(out, "AI: %s\n", s.Greeting())

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "User: ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		utterance := strings.TrimSpace(scanner.Text())
		if utterance == "" {
			continue
		}

		reply, err := s.Say(utterance)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "AI: %s\n", reply)

		if endsCall(utterance) {
			fmt.Fprintln(out, "Call ended. Thank you for using our service!")
			return nil
		}
	}
}
