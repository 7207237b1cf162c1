// A thread-per-connection TCP transport loop driving the core: reads one
// handshake, negotiates it, then echoes every text frame back. This is the
// external collaborator the library itself refuses to be.
package main

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	tymws "github.com/YvanTchuente/tym-websocket"
)

func main() {
	godotenv.Load()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	viper.SetConfigName("application")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.SetDefault("websocket", map[string]any{
		"addr":     "127.0.0.1",
		"port":     1000,
		"hostname": "localhost",
		"services": []string{"/echo"},
	})
	viper.ReadInConfig()

	cfg, err := tymws.LoadConfig("websocket")
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	server, err := tymws.NewServer(cfg, &tymws.Options{
		Logger:  &logger,
		Limiter: tymws.NewHandshakeLimiter(5, 10),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("server setup failed")
	}

	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Addr, cfg.Port))
	if err != nil {
		logger.Fatal().Err(err).Msg("listen failed")
	}
	logger.Info().Str("addr", ln.Addr().String()).Msg("listening")

	for {
		c, err := ln.Accept()
		if err != nil {
			logger.Error().Err(err).Msg("accept failed")
			continue
		}
		go serve(server, c)
	}
}

func serve(server *tymws.Server, c net.Conn) {
	br := bufio.NewReader(c)

	raw, err := readHandshake(br)
	if err != nil {
		c.Close()
		return
	}

	conn, decision, err := server.Connect(tymws.NewNetTransport(c), raw)
	if err != nil || !decision.Accepted() {
		return
	}
	defer server.Disconnect(conn, tymws.CloseGoingAway, "server going away")

	for {
		frame, err := readFrame(br)
		if err != nil {
			return
		}

		payload, err := tymws.DecodeFrame(frame)
		if err != nil {
			server.Disconnect(conn, tymws.CloseProtocolError, err.Error())
			return
		}

		if !server.Send(conn, tymws.OpcodeText, payload) {
			return
		}
	}
}

// readHandshake buffers the request text up to the blank line ending the
// header block.
func readHandshake(br *bufio.Reader) (string, error) {
	var raw []byte
	for {
		line, err := br.ReadBytes('\n')
		if err != nil {
			return "", err
		}
		raw = append(raw, line...)
		if len(line) <= 2 {
			return string(raw), nil
		}
	}
}

// readFrame pre-reads the header to learn the frame length, then buffers the
// whole frame so the codec sees it contiguously.
func readFrame(br *bufio.Reader) ([]byte, error) {
	header := make([]byte, 2)
	if _, err := io.ReadFull(br, header); err != nil {
		return nil, err
	}

	var ext int
	length := int(header[1] & 0x7F)
	switch length {
	case 126:
		ext = 2
	case 127:
		ext = 8
	}

	frame := header
	if ext > 0 {
		extra := make([]byte, ext)
		if _, err := io.ReadFull(br, extra); err != nil {
			return nil, err
		}
		frame = append(frame, extra...)
		if ext == 2 {
			length = int(binary.BigEndian.Uint16(extra))
		} else {
			length = int(binary.BigEndian.Uint64(extra))
		}
	}

	if header[1]&0x80 != 0 {
		length += 4
	}

	rest := make([]byte, length)
	if _, err := io.ReadFull(br, rest); err != nil {
		return nil, err
	}

	return append(frame, rest...), nil
}
