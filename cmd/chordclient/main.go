// Command chordclient is an interactive tool that issues DhtPut/DhtGet
// requests against a chordnode's api surface, grounded on the teacher
// pack's own bufio-menu client.
package main

import (
	"bufio"
	"crypto/sha256"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"chorddht/wire"
)

var (
	menuColor   = color.New(color.FgCyan)
	sendColor   = color.New(color.FgYellow)
	replyColor  = color.New(color.FgMagenta)
	errorColor  = color.New(color.FgRed)
)

func showMenu() {
	menuColor.Println("********************************")
	menuColor.Println("\t\tMENU")
	menuColor.Println("put <key> <value> [replication]  - store a value")
	menuColor.Println("get <key>                         - fetch a value")
	menuColor.Println("m                                 - show this menu")
	menuColor.Println("quit                               - exit")
	menuColor.Println("********************************")
}

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: chordclient <api-address>")
		os.Exit(1)
	}
	apiAddress := os.Args[1]

	showMenu()
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch strings.ToLower(fields[0]) {
		case "m":
			showMenu()
		case "quit", "exit":
			return
		case "put":
			handlePut(apiAddress, fields[1:])
		case "get":
			handleGet(apiAddress, fields[1:])
		default:
			errorColor.Println("unrecognized command, type m for the menu")
		}
	}
}

func hashKey(raw string) [wire.KeySize]byte {
	return sha256.Sum256([]byte(raw))
}

func handlePut(apiAddress string, args []string) {
	if len(args) < 2 {
		errorColor.Println("usage: put <key> <value> [replication]")
		return
	}
	replication := 0
	if len(args) >= 3 {
		r, err := strconv.Atoi(args[2])
		if err != nil || r < 0 || r > 255 {
			errorColor.Println("replication must be an integer in [0, 255]")
			return
		}
		replication = r
	}

	msg := wire.DhtPut{
		TTL:         0,
		Replication: uint8(replication),
		Key:         hashKey(args[0]),
		Value:       []byte(args[1]),
	}

	sendColor.Printf("PUT key=%q replication=%d\n", args[0], replication)
	conn, err := net.DialTimeout("tcp", apiAddress, 5*time.Second)
	if err != nil {
		errorColor.Println("dial failed:", err)
		return
	}
	defer conn.Close()

	if err := wire.WriteFrame(conn, msg); err != nil {
		errorColor.Println("put failed:", err)
		return
	}
	replyColor.Println("put accepted")
}

func handleGet(apiAddress string, args []string) {
	if len(args) != 1 {
		errorColor.Println("usage: get <key>")
		return
	}

	msg := wire.DhtGet{Key: hashKey(args[0])}

	sendColor.Printf("GET key=%q\n", args[0])
	conn, err := net.DialTimeout("tcp", apiAddress, 5*time.Second)
	if err != nil {
		errorColor.Println("dial failed:", err)
		return
	}
	defer conn.Close()

	if err := wire.WriteFrame(conn, msg); err != nil {
		errorColor.Println("get request failed:", err)
		return
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	reply, err := wire.ReadFrame(conn)
	if err != nil {
		errorColor.Println("reading reply failed:", err)
		return
	}

	switch r := reply.(type) {
	case wire.DhtSuccess:
		replyColor.Printf("found: %s\n", string(r.Value))
	case wire.DhtFailure:
		replyColor.Println("not found")
	default:
		errorColor.Printf("unexpected reply type %T\n", reply)
	}
}
