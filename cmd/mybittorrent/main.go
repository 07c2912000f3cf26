package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/burmudar/btcodec/internal/config"
	"github.com/burmudar/btcodec/pkg/bt/bencode"
	"github.com/burmudar/btcodec/pkg/bt/peer"
	"github.com/burmudar/btcodec/pkg/bt/tracker"
	"github.com/burmudar/btcodec/pkg/bt/types"
)

const usage = `usage: mybittorrent <command> [args]

commands:
  decode <bencoded>                      print a bencoded value as JSON
  info <file.torrent>...                 print metainfo of one or more torrents
  message <hex>                          decode a peer wire message
  handshake <info-hash-hex> <peer-id>    print a handshake frame as hex
  tracker <response-file>                decode a tracker announce response`

type command struct {
	args int
	run  func(cfg *config.Config, out io.Writer, args []string) error
}

var commands = map[string]command{
	"decode":    {1, runDecode},
	"info":      {1, runInfo},
	"message":   {1, runMessage},
	"handshake": {2, runHandshake},
	"tracker":   {1, runTracker},
}

func main() {
	cfg := config.NewConfig()
	log := cfg.Logger("mybittorrent")
	defer log.Sync()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}

	name := os.Args[1]
	cmd, ok := commands[name]
	if !ok {
		log.Errorw("Unknown command", "command", name)
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}

	args := os.Args[2:]
	if len(args) < cmd.args {
		log.Errorw("Missing arguments", "command", name, "want", cmd.args, "got", len(args))
		os.Exit(1)
	}

	log.Debugw("running command", "command", name, "args", args)
	if err := cmd.run(cfg, os.Stdout, args); err != nil {
		log.Errorw(fmt.Sprintf("%s failed", name), zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
}

func runDecode(cfg *config.Config, out io.Writer, args []string) error {
	v, err := bencode.NewDecoder(cfg.DecoderOptions()...).Decode([]byte(args[0]))
	if err != nil {
		return fmt.Errorf("decoding failure: %w", err)
	}

	data, err := json.Marshal(bencode.ToNative(v))
	if err != nil {
		return fmt.Errorf("marshalling failure: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

func runInfo(cfg *config.Config, out io.Writer, paths []string) error {
	loader := types.NewLoader(cfg.LoadConcurrency, cfg.DecoderOptions()...)
	defer loader.Close()

	torrents, err := loader.LoadAll(context.Background(), paths)
	for _, t := range torrents {
		printInfo(out, t)
	}
	return err
}

func printInfo(out io.Writer, t *types.Torrent) {
	hash := t.InfoHash()
	fmt.Fprintf(out, "Tracker URL: %s\n", t.Announce)
	fmt.Fprintf(out, "Length: %d\n", t.Length)
	fmt.Fprintf(out, "Info Hash: %x\n", hash[:])
	fmt.Fprintf(out, "Piece Length: %d\n", t.PieceLength)
	fmt.Fprintln(out, "Piece Hashes:")
	for i := 0; i < t.PieceCount(); i++ {
		fmt.Fprintf(out, "%x\n", t.HashFor(i))
	}
}

func runMessage(_ *config.Config, out io.Writer, args []string) error {
	data, err := hex.DecodeString(args[0])
	if err != nil {
		return fmt.Errorf("invalid hex: %w", err)
	}

	msg, err := peer.DecodeMessage(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, msg.String())
	return err
}

func runHandshake(_ *config.Config, out io.Writer, args []string) error {
	infoHash, err := hex.DecodeString(args[0])
	if err != nil {
		return fmt.Errorf("invalid info hash hex: %w", err)
	}

	h, err := peer.NewHandshake(infoHash, []byte(args[1]))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%x\n", h.Bytes())
	return err
}

func runTracker(_ *config.Config, out io.Writer, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	resp, err := tracker.DecodePeersResponse(data)
	if err != nil {
		return err
	}

	if resp.WarningMessage != "" {
		fmt.Fprintf(out, "Warning: %s\n", resp.WarningMessage)
	}
	fmt.Fprintf(out, "Interval: %d\n", resp.Interval)
	for _, p := range resp.Peers {
		fmt.Fprintln(out, p.String())
	}
	return nil
}
