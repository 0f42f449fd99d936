package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"procwalk/config"
	"procwalk/process"
	"procwalk/table"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type processRow struct {
	PID     process.ProcessID `json:"pid"`
	PPID    process.ProcessID `json:"ppid"`
	Name    string            `json:"name"`
	Threads int               `json:"threads"`
}

type threadRow struct {
	PID          process.ProcessID `json:"pid"`
	TID          process.ThreadID  `json:"tid"`
	BasePriority int               `json:"base_priority"`
}

type moduleRow struct {
	base process.ProcessMemoryAddress

	Base string `json:"base"`
	Size uint   `json:"size"`
	Name string `json:"name"`
	Path string `json:"path,omitempty"`
}

type treeRow struct {
	processRow
	Children []treeRow `json:"children,omitempty"`
}

type symbolRow struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type patchRow struct {
	PID     process.ProcessID `json:"pid"`
	Address string            `json:"address"`
	Written uint              `json:"written"`
	Length  int               `json:"length"`
}

func toProcessRow(p process.ProcessInfo) processRow {
	return processRow{PID: p.PID, PPID: p.PPID, Name: p.Name, Threads: p.Threads}
}

func toModuleRow(m process.ModuleInfo) moduleRow {
	return moduleRow{base: m.Base, Base: m.Base.ToString(), Size: uint(m.Size), Name: m.Name, Path: m.Path}
}

func toTreeRow(n *process.ProcessTreeNode) treeRow {
	row := treeRow{processRow: toProcessRow(n.Process)}
	for _, c := range n.Children {
		row.Children = append(row.Children, toTreeRow(c))
	}
	return row
}

// printer writes either one JSON document or the text rendering.
type printer struct {
	w      io.Writer
	format string
}

func newPrinter(w io.Writer, format string) *printer {
	return &printer{w: w, format: format}
}

func (p *printer) print(v any, text func(io.Writer)) error {
	if p.format == config.OutputJSON {
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(p.w)
	return nil
}

func writeProcesses(w io.Writer, rows []processRow) {
	for _, r := range rows {
		fmt.Fprintf(w, "%d %s\n", r.PID, r.Name)
	}
}

func writeModules(w io.Writer, rows []moduleRow) {
	for _, r := range rows {
		if r.Path != "" {
			fmt.Fprintf(w, "%08X %s %s\n", uint64(r.base), r.Name, r.Path)
		} else {
			fmt.Fprintf(w, "%08X %s\n", uint64(r.base), r.Name)
		}
	}
}

func writeTree(w io.Writer, row treeRow, depth int) {
	fmt.Fprintf(w, "%s%d %s\n", strings.Repeat("  ", depth), row.PID, row.Name)
	for _, c := range row.Children {
		writeTree(w, c, depth+1)
	}
}

func processTable(rows []processRow) *table.Table {
	t := table.New(
		table.Column{Header: "PID", Right: true},
		table.Column{Header: "PPID", Right: true},
		table.Column{Header: "THREADS", Right: true},
		table.Column{Header: "NAME"},
	)
	for _, r := range rows {
		t.AddRow(strconv.Itoa(int(r.PID)), strconv.Itoa(int(r.PPID)), strconv.Itoa(r.Threads), r.Name)
	}
	return t
}

func moduleTable(rows []moduleRow) *table.Table {
	t := table.New(
		table.Column{Header: "BASE", Right: true},
		table.Column{Header: "SIZE", Right: true},
		table.Column{Header: "NAME"},
		table.Column{Header: "PATH"},
	)
	for _, r := range rows {
		t.AddRow(fmt.Sprintf("%08X", uint64(r.base)), fmt.Sprintf("0x%X", r.Size), r.Name, r.Path)
	}
	return t
}
