package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/taskrank/pkg/model"
	"github.com/harrisonrobin/taskrank/pkg/orgmode"
	"github.com/harrisonrobin/taskrank/pkg/taskwarrior"
)

const (
	sourceJSON        = "json"
	sourceTaskwarrior = "taskwarrior"
	sourceOrg         = "org"
)

// sourceFlags select where tasks are read from. rank and publish share them.
type sourceFlags struct {
	source string
	tag    string
}

func (s *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.source, "source", sourceJSON, "task source: json, taskwarrior or org")
	cmd.Flags().StringVar(&s.tag, "tag", "", "org source: only rank entries with this tag")
}

// load reads raw tasks. For json, args name one file ("-" or none means
// stdin); for taskwarrior they are the filter; for org they are files.
func (s *sourceFlags) load(ctx context.Context, args []string, stdin io.Reader) ([]model.RawTask, error) {
	switch s.source {
	case sourceJSON:
		if len(args) > 1 {
			return nil, fmt.Errorf("json source takes at most one file, got %d", len(args))
		}
		r := stdin
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return nil, err
			}
			defer f.Close()
			r = f
		}
		return decodeRawTasks(r)
	case sourceTaskwarrior:
		tasks, err := taskwarrior.NewClient().GetTasks(ctx, args)
		if err != nil {
			return nil, err
		}
		return taskwarrior.RawTasks(tasks), nil
	case sourceOrg:
		if len(args) == 0 {
			return nil, fmt.Errorf("org source needs at least one file")
		}
		entries, err := orgmode.ParseFiles(args)
		if err != nil {
			return nil, err
		}
		if s.tag != "" {
			entries = orgmode.FilterTasks(entries, s.tag)
		}
		return orgmode.RawTasks(entries), nil
	}
	return nil, fmt.Errorf("unknown source %q", s.source)
}

// decodeRawTasks accepts a JSON array of task objects or an object with a
// "tasks" array. Numbers are kept as json.Number.
func decodeRawTasks(r io.Reader) ([]model.RawTask, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []model.RawTask{}, nil
	}

	var items []json.RawMessage
	if data[0] == '{' {
		var wrapper struct {
			Tasks []json.RawMessage `json:"tasks"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, fmt.Errorf("failed to decode tasks: %w", err)
		}
		items = wrapper.Tasks
	} else if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}

	raw := make([]model.RawTask, 0, len(items))
	for i, item := range items {
		dec := json.NewDecoder(bytes.NewReader(item))
		dec.UseNumber()
		var task model.RawTask
		if err := dec.Decode(&task); err != nil || task == nil {
			return nil, fmt.Errorf("task %d is not a JSON object", i)
		}
		raw = append(raw, task)
	}
	return raw, nil
}
