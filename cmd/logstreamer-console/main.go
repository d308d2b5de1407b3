// Command logstreamer-console is a debugging REPL for the broker wire
// protocol, reimplementing original_source/src/client_console.rs's
// command set over internal/transport.Client. It is not part of the
// wire contract: every command it understands is fixed-width,
// newline-terminated operator shorthand, not a protocol extension.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tiagodeliberali/logstreamer/internal/protocol"
	"github.com/tiagodeliberali/logstreamer/internal/transport"
)

const defaultTopic = "topic"

func main() {
	address := "127.0.0.1:8080"
	if len(os.Args) > 1 {
		address = os.Args[1]
	}
	var peers []string
	if len(os.Args) > 2 {
		peers = os.Args[2:]
	}

	client := transport.MustNewClient(address)
	defer client.Close()

	fmt.Println("logstreamer console")
	fmt.Printf("connected to %s\n", address)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		action, quit := parseCommand(line, peers)
		responses := client.SendMessage(protocol.NewActionMessage(action, ""))
		printResponses(responses)

		if quit {
			return
		}
	}
}

// parseCommand decodes one console line into an Action, following
// spec.md §6's console command set: `i` initializes the controller
// with the peer list given on the command line, `c XXXX YYYY`
// consumes offset/limit as 4-digit zero-padded decimals, `p<text>`
// produces one record, `n` creates the default topic, and `q` quits.
// Anything else decodes as Invalid, same as a malformed wire tag.
func parseCommand(line string, peers []string) (action protocol.Action, quit bool) {
	switch line[0] {
	case 'i':
		return &protocol.InitializeController{Brokers: peers}, false
	case 'c':
		offset, limit, err := parseConsumeArgs(line[1:])
		if err != nil {
			fmt.Println("bad consume command:", err)
			return &protocol.Invalid{}, false
		}
		return &protocol.Consume{
			Topic:  protocol.TopicAddress{Name: defaultTopic, Partition: 0},
			Offset: protocol.OffsetValue(offset),
			Limit:  limit,
		}, false
	case 'p':
		return &protocol.Produce{
			Topic:    protocol.TopicAddress{Name: defaultTopic, Partition: 0},
			Contents: []protocol.Content{protocol.Content(line[1:])},
		}, false
	case 'n':
		return &protocol.CreateTopic{TopicName: defaultTopic, PartitionCount: 1}, false
	case 'q':
		return &protocol.Quit{}, true
	default:
		return &protocol.Invalid{}, false
	}
}

// parseConsumeArgs reads two 4-digit zero-padded decimal fields from
// rest, accepting either "c XXXX YYYY" (space-separated, as
// documented) or the packed "cXXXXYYYY" form the original console
// used.
func parseConsumeArgs(rest string) (offset, limit uint32, err error) {
	fields := strings.Fields(rest)
	var offsetStr, limitStr string
	switch len(fields) {
	case 2:
		offsetStr, limitStr = fields[0], fields[1]
	default:
		packed := strings.TrimSpace(rest)
		if len(packed) < 8 {
			return 0, 0, fmt.Errorf("expected two 4-digit fields, got %q", rest)
		}
		offsetStr, limitStr = packed[0:4], packed[4:8]
	}

	o, err := strconv.ParseUint(offsetStr, 10, 32)
	if err != nil {
		return 0, 0, err
	}
	l, err := strconv.ParseUint(limitStr, 10, 32)
	if err != nil {
		return 0, 0, err
	}
	return uint32(o), uint32(l), nil
}

func printResponses(responses []protocol.ResponseMessage) {
	for _, r := range responses {
		switch resp := r.Response.(type) {
		case *protocol.Empty:
			fmt.Println("[empty]")
		case *protocol.ContentResponse:
			fmt.Printf("[content: %d] %s\n", resp.Offset, resp.Value)
		case *protocol.OffsetResponse:
			fmt.Printf("[offset] %d\n", resp.Offset)
		case *protocol.ErrorResponse:
			fmt.Println("[error]")
		case *protocol.AskTheControllerResponse:
			fmt.Printf("[ask the controller] %s\n", resp.ControllerAddress)
		}
	}
}
