// A small terminal client for the chat relay. It joins a room, prints
// incoming traffic, and turns stdin lines into messages ("/location lat lon"
// shares coordinates).
package main

import (
	"bufio"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/infrastructure/ws"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/olekukonko/tablewriter"
)

// serverFrame mirrors the relay's outbound envelope.
type serverFrame struct {
	Event string          `json:"event"`
	Seq   uint64          `json:"seq,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

func main() {
	addr := flag.String("addr", "localhost:3000", "relay host:port")
	name := flag.String("name", "", "display name")
	room := flag.String("room", "", "room to join")
	flag.Parse()

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Connection failed: %v", err)
	}
	defer conn.Close()

	var seq uint64
	send := func(eventName string, data any) {
		payload, err := json.Marshal(data)
		if err != nil {
			log.Fatalf("Encoding failed: %v", err)
		}
		seq++
		if err := conn.WriteJSON(ws.Envelope{Event: eventName, Seq: seq, Data: payload}); err != nil {
			log.Fatalf("Send failed: %v", err)
		}
	}

	send(ws.EventJoin, ws.JoinRequest{DisplayName: *name, Room: *room})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var frame serverFrame
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			render(frame)
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if coords, ok := strings.CutPrefix(line, "/location "); ok {
			lat, lon, err := parseCoords(coords)
			if err != nil {
				color.Red.Println(err)
				continue
			}
			send(ws.EventSendLocation, ws.LocationRequest{Latitude: lat, Longitude: lon})
			continue
		}
		send(ws.EventSendMessage, ws.MessageRequest{Text: line})
	}

	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	<-done
}

func render(frame serverFrame) {
	switch frame.Event {
	case ws.EventAck:
		if frame.Error != "" {
			color.Red.Printf("✗ %s\n", frame.Error)
		}
	case "message":
		var msg event.Message
		if json.Unmarshal(frame.Data, &msg) != nil {
			return
		}
		line := fmt.Sprintf("[%s] %s: %s", msg.CreatedAt.Format("15:04:05"), msg.Sender, msg.Text)
		if msg.Sender == domain.AdminSender {
			color.Yellow.Println(line)
		} else {
			color.Cyan.Println(line)
		}
	case "locationMessage":
		var msg event.LocationMessage
		if json.Unmarshal(frame.Data, &msg) != nil {
			return
		}
		color.Green.Printf("[%s] %s shared their location: %s\n",
			msg.CreatedAt.Format("15:04:05"), msg.Sender, msg.URL)
	case "roomData":
		var data event.RoomData
		if json.Unmarshal(frame.Data, &data) != nil {
			return
		}
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{fmt.Sprintf("Room: %s", data.Room)})
		for _, user := range data.Users {
			table.Append([]string{user.DisplayName})
		}
		table.Render()
	}
}

func parseCoords(raw string) (float64, float64, error) {
	parts := strings.Fields(raw)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("usage: /location <latitude> <longitude>")
	}
	lat, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude: %w", err)
	}
	return lat, lon, nil
}
