// Command client is a line-oriented debugging client for the game server.
// It joins a room and translates stdin commands into protocol envelopes.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

var seq int64

func send(c *websocket.Conn, event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	seq++
	env := map[string]any{"event": event, "seq": seq, "data": json.RawMessage(raw)}
	return c.WriteJSON(env)
}

func main() {
	addr := flag.String("addr", "localhost:5000", "server address")
	roomID := flag.String("room", "demo", "room to join")
	role := flag.String("role", "he", "role to play as (he or she)")
	gameType := flag.String("game", "tictactoe", "game type for room creation")
	flag.Parse()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			log.Printf("<- RECV: %s", string(message))
		}
	}()

	log.Printf("Joining room %s as %s (%s)...", *roomID, *role, *gameType)
	if err := send(c, "join_room", map[string]any{
		"roomId": *roomID, "role": *role, "gameType": *gameType,
	}); err != nil {
		log.Println("Write error:", err)
		return
	}

	log.Println("Commands: choose <color> | guess <color> | move <index> | number <n> | roll | goto <tile> | solve <answer> | switch <game> | reset | leave | quit")

	lines := make(chan string)
	go func() {
		reader := bufio.NewReader(os.Stdin)
		for {
			text, err := reader.ReadString('\n')
			if err != nil {
				close(lines)
				return
			}
			lines <- strings.TrimSpace(text)
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		case text, ok := <-lines:
			if !ok {
				return
			}
			if text == "" {
				continue
			}
			if err := dispatchCommand(c, *roomID, *role, text); err != nil {
				log.Println("Write error:", err)
				return
			}
			if text == "quit" {
				return
			}
		}
	}
}

func dispatchCommand(c *websocket.Conn, roomID, role, text string) error {
	fields := strings.Fields(text)
	cmd := fields[0]
	arg := ""
	if len(fields) > 1 {
		arg = strings.Join(fields[1:], " ")
	}

	base := map[string]any{"roomId": roomID, "role": role}

	switch cmd {
	case "choose":
		base["color"] = arg
		return send(c, "choose_ball", base)
	case "guess":
		base["color"] = arg
		return send(c, "guess_ball", base)
	case "move":
		index, err := strconv.Atoi(arg)
		if err != nil {
			log.Println("Usage: move <index>")
			return nil
		}
		base["index"] = index
		return send(c, "make_move", base)
	case "number":
		base["guess"] = json.Number(arg)
		return send(c, "guess_number", base)
	case "roll":
		base["action"] = "roll"
		return send(c, "game_action", base)
	case "goto":
		target, err := strconv.Atoi(arg)
		if err != nil {
			log.Println("Usage: goto <tile>")
			return nil
		}
		base["action"] = "move"
		base["targetId"] = target
		return send(c, "game_action", base)
	case "solve":
		base["action"] = "solve"
		base["answer"] = arg
		return send(c, "game_action", base)
	case "switch":
		base["gameType"] = arg
		return send(c, "switch_game", base)
	case "reset":
		return send(c, "reset_game", base)
	case "leave", "quit":
		return send(c, "leave_room", base)
	default:
		log.Printf("Unknown command: %s", cmd)
		return nil
	}
}
