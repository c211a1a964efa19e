package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	"qrchat/codec"
	"qrchat/domain"
	"qrchat/internal"
	"qrchat/qr"
	"qrchat/repositories"
	"qrchat/search"
	"qrchat/services"
)

type app struct {
	config  internal.Config
	log     *slog.Logger
	store   repositories.ConversationRepository
	service *services.ConversationService
}

func (a *app) dispatch(command string, args []string) error {
	switch command {
	case "new":
		return a.cmdNew(args)
	case "join":
		return a.cmdJoin(args)
	case "say":
		return a.cmdSay(args)
	case "leave":
		return a.cmdLeave(args)
	case "show":
		return a.cmdShow(args)
	case "list":
		return a.cmdList()
	case "encode":
		return a.cmdEncode(args)
	case "decode":
		return a.cmdDecode(args)
	case "render":
		return a.cmdRender(args)
	case "scan":
		return a.cmdScan(args)
	case "search":
		return a.cmdSearch(args)
	case "capacity":
		return a.cmdCapacity(args)
	}
	fmt.Fprint(os.Stderr, usage)
	return fmt.Errorf("unknown command %q", command)
}

// load pulls a stored buffer and decodes it; every mutating command
// goes buffer -> conversation -> mutate -> buffer, because the
// encoded form is the only durable state this system has.
func (a *app) load(id string) (uuid.UUID, *domain.Conversation, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("conversation id %q: %w", id, err)
	}
	buf, err := a.store.Load(parsed)
	if err != nil {
		return uuid.Nil, nil, err
	}
	c, err := a.service.FromBytes(buf)
	if err != nil {
		return uuid.Nil, nil, err
	}
	return parsed, c, nil
}

func (a *app) save(id uuid.UUID, c *domain.Conversation) error {
	buf, err := a.service.ToBytes(c, services.EncodeOptions{
		MaxBytes: codec.CapacityForLevel(a.config.QRLevel),
	})
	if err != nil {
		return err
	}
	return a.store.Save(id, buf)
}

func (a *app) cmdNew(args []string) error {
	fs := flag.NewFlagSet("new", flag.ContinueOnError)
	name := fs.String("name", "", "your participant name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	c, err := a.service.Create(*name)
	if err != nil {
		return err
	}
	id := uuid.New()
	if err := a.save(id, c); err != nil {
		return err
	}
	color.Green.Printf("Conversation %s created by %s\n", id, *name)
	return nil
}

func (a *app) cmdJoin(args []string) error {
	fs := flag.NewFlagSet("join", flag.ContinueOnError)
	id := fs.String("id", "", "conversation id")
	name := fs.String("name", "", "participant name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	parsed, c, err := a.load(*id)
	if err != nil {
		return err
	}
	idx, err := a.service.Join(c, *name)
	if err != nil {
		return err
	}
	if err := a.save(parsed, c); err != nil {
		return err
	}
	color.Green.Printf("%s joined as speaker %d (%s mode)\n", *name, idx, c.Mode)
	return nil
}

func (a *app) cmdSay(args []string) error {
	fs := flag.NewFlagSet("say", flag.ContinueOnError)
	id := fs.String("id", "", "conversation id")
	speaker := fs.Int("speaker", -1, "speaker index")
	text := fs.String("text", "", "message text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	parsed, c, err := a.load(*id)
	if err != nil {
		return err
	}
	if err := a.service.AddMessage(c, *speaker, *text); err != nil {
		return err
	}
	return a.save(parsed, c)
}

func (a *app) cmdLeave(args []string) error {
	fs := flag.NewFlagSet("leave", flag.ContinueOnError)
	id := fs.String("id", "", "conversation id")
	participant := fs.Int("participant", -1, "participant index")
	if err := fs.Parse(args); err != nil {
		return err
	}
	parsed, c, err := a.load(*id)
	if err != nil {
		return err
	}
	if err := a.service.Leave(c, *participant); err != nil {
		return err
	}
	return a.save(parsed, c)
}

func (a *app) cmdShow(args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	id := fs.String("id", "", "conversation id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	_, c, err := a.load(*id)
	if err != nil {
		return err
	}

	color.Bold.Printf("Mode: %s  Encoding: %s\n\n", c.Mode, c.Encoding)

	participants := tablewriter.NewWriter(os.Stdout)
	participants.SetHeader([]string{"Index", "Name", "Active"})
	participants.SetBorder(false)
	for i, p := range c.Participants {
		participants.Append([]string{strconv.Itoa(i), p.Name, strconv.FormatBool(p.Active)})
	}
	participants.Render()
	fmt.Println()

	entries := tablewriter.NewWriter(os.Stdout)
	entries.SetHeader([]string{"#", "Type", "Who", "Text"})
	entries.SetBorder(false)
	entries.SetAutoWrapText(false)
	for i, e := range c.Entries {
		switch v := e.(type) {
		case domain.ChatMessage:
			entries.Append([]string{strconv.Itoa(i), "message", c.Participants[v.Speaker].Name, v.Text})
		case domain.SystemEvent:
			entries.Append([]string{strconv.Itoa(i), v.Event.String(), c.Participants[v.Participant].Name, ""})
		}
	}
	entries.Render()
	return nil
}

func (a *app) cmdList() error {
	stored, err := a.store.List()
	if err != nil {
		return err
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Bytes"})
	table.SetBorder(false)
	for _, s := range stored {
		table.Append([]string{s.ID.String(), strconv.Itoa(s.Size)})
	}
	table.Render()
	return nil
}

func (a *app) cmdEncode(args []string) error {
	fs := flag.NewFlagSet("encode", flag.ContinueOnError)
	id := fs.String("id", "", "conversation id")
	out := fs.String("out", "conversation.bin", "output file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	parsed, err := uuid.Parse(*id)
	if err != nil {
		return err
	}
	buf, err := a.store.Load(parsed)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, buf, 0o644); err != nil {
		return err
	}
	fmt.Printf("%d bytes written to %s\n", len(buf), *out)
	return nil
}

func (a *app) cmdDecode(args []string) error {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	in := fs.String("in", "", "wire-format buffer file")
	save := fs.Bool("save", false, "store the decoded conversation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	buf, err := os.ReadFile(*in)
	if err != nil {
		return err
	}
	return a.importBuffer(buf, *save)
}

func (a *app) cmdRender(args []string) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	id := fs.String("id", "", "conversation id")
	out := fs.String("out", "conversation.png", "output PNG")
	if err := fs.Parse(args); err != nil {
		return err
	}
	parsed, err := uuid.Parse(*id)
	if err != nil {
		return err
	}
	buf, err := a.store.Load(parsed)
	if err != nil {
		return err
	}
	if err := qr.Render(buf, a.config.QRLevel, a.config.QRSize, *out); err != nil {
		return err
	}
	color.Green.Printf("QR code written to %s (%d payload bytes, level %s)\n",
		*out, len(buf), a.config.QRLevel)
	return nil
}

func (a *app) cmdScan(args []string) error {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	in := fs.String("in", "", "QR image file")
	save := fs.Bool("save", false, "store the scanned conversation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	buf, err := qr.Scan(*in)
	if err != nil {
		return err
	}
	return a.importBuffer(buf, *save)
}

// importBuffer validates an incoming buffer by decoding it, prints a
// summary, and optionally stores and indexes it under a fresh id.
func (a *app) importBuffer(buf []byte, save bool) error {
	c, err := a.service.FromBytes(buf)
	if err != nil {
		return err
	}
	fmt.Printf("Decoded conversation: %d participants, %d entries, %s mode\n",
		len(c.Participants), len(c.Entries), c.Mode)
	for _, p := range c.Participants {
		marker := " "
		if p.Active {
			marker = "*"
		}
		fmt.Printf("  %s %s\n", marker, p.Name)
	}
	if !save {
		return nil
	}
	id := uuid.New()
	if err := a.store.Save(id, buf); err != nil {
		return err
	}
	if err := a.indexConversation(id.String(), c); err != nil {
		return err
	}
	color.Green.Printf("Stored as %s\n", id)
	return nil
}

func (a *app) indexConversation(id string, c *domain.Conversation) error {
	idx, err := search.NewIndex(a.config.BlugeFilepath, a.log)
	if err != nil {
		return err
	}
	defer idx.Close()
	return idx.IndexConversation(id, c)
}

func (a *app) cmdSearch(args []string) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	terms := fs.String("terms", "", "search terms")
	limit := fs.Int("limit", 10, "maximum hits")
	if err := fs.Parse(args); err != nil {
		return err
	}
	idx, err := search.NewIndex(a.config.BlugeFilepath, a.log)
	if err != nil {
		return err
	}
	defer idx.Close()

	hits, err := idx.Search(context.Background(), *terms, *limit)
	if err != nil {
		return err
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Conversation", "Speaker", "Text"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	for _, h := range hits {
		table.Append([]string{h.Conversation, h.Speaker, h.Text})
	}
	table.Render()
	return nil
}

func (a *app) cmdCapacity(args []string) error {
	fs := flag.NewFlagSet("capacity", flag.ContinueOnError)
	id := fs.String("id", "", "conversation id")
	avg := fs.Int("avg", 0, "average message length in characters")
	if err := fs.Parse(args); err != nil {
		return err
	}
	_, c, err := a.load(*id)
	if err != nil {
		return err
	}
	if *avg <= 0 {
		*avg = a.config.AvgMsgLength
	}

	inspector := services.NewInspector(a.service)
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Level", "Budget", "Used", "Messages left"})
	table.SetBorder(false)
	for _, level := range []string{"l", "m", "q", "h"} {
		budget := codec.CapacityForLevel(level)
		stats, err := inspector.Stats(c, *avg, budget)
		if err != nil {
			return err
		}
		table.Append([]string{
			level,
			strconv.Itoa(budget),
			strconv.Itoa(stats.EncodedBytes),
			strconv.Itoa(stats.RemainingMessages),
		})
	}
	table.Render()
	return nil
}
