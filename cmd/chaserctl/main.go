// Command chaserctl is the operator CLI: send stop/reset to a running car or
// tail its status stream.
//
//	chaserctl stop
//	chaserctl reset
//	chaserctl watch
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/pflag"
)

func main() {
	addr := pflag.String("addr", "127.0.0.1:8090", "dashboard address")
	pflag.Parse()

	if pflag.NArg() != 1 {
		usage()
	}

	var err error
	switch pflag.Arg(0) {
	case "stop", "reset":
		err = sendCommand(*addr, pflag.Arg(0))
	case "status":
		err = printStatus(*addr)
	case "watch":
		err = watch(*addr)
	default:
		usage()
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "chaserctl: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: chaserctl [--addr host:port] stop|reset|status|watch")
	os.Exit(2)
}

func sendCommand(addr, name string) error {
	body, _ := json.Marshal(map[string]string{"command": name})

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Post("http://"+addr+"/api/command", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: %s", resp.Status, bytes.TrimSpace(msg))
	}
	fmt.Printf("sent %s\n", name)
	return nil
}

func printStatus(addr string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + addr + "/api/status")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var status map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return err
	}
	out, _ := json.MarshalIndent(status, "", "  ")
	fmt.Println(string(out))
	return nil
}

// watch tails the status websocket, one line per control cycle, until
// interrupted.
func watch(addr string) error {
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws/status", nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM)

	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				errs <- err
				return
			}
			lines <- formatStatus(data)
		}
	}()

	for {
		select {
		case line := <-lines:
			fmt.Println(line)
		case err := <-errs:
			return fmt.Errorf("stream closed: %w", err)
		case <-interrupt:
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return nil
		}
	}
}

func formatStatus(data []byte) string {
	var st struct {
		State         string   `json:"state"`
		AvoidPhase    string   `json:"avoid_phase"`
		Linear        float64  `json:"linear"`
		Angular       float64  `json:"angular"`
		PersonFound   bool     `json:"person_found"`
		Distance      *float64 `json:"distance"`
		ObstacleAhead bool     `json:"obstacle_ahead"`
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return string(data)
	}

	line := fmt.Sprintf("%-15s v=%+.2f w=%+.2f", st.State, st.Linear, st.Angular)
	if st.State == "AVOID_OBSTACLE" {
		line += " phase=" + st.AvoidPhase
	}
	if st.PersonFound {
		if st.Distance != nil {
			line += fmt.Sprintf(" person@%.2fm", *st.Distance)
		} else {
			line += " person"
		}
	}
	if st.ObstacleAhead {
		line += " OBSTACLE"
	}
	return line
}
