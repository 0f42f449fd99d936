package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"procwalk/config"
	"procwalk/hexdump"
	"procwalk/process"
	"procwalk/snapshot"
)

var (
	nameFilter    string
	handleModules bool
	dryRun        bool
	long          bool
)

var psCmd = &cobra.Command{
	Use:   "ps",
	Short: "List processes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		view, err := snapshot.Processes(sys)
		if err != nil {
			return err
		}

		rows := []processRow{}
		for p := range view.All() {
			if strings.Contains(p.Name, nameFilter) {
				rows = append(rows, toProcessRow(p))
			}
		}
		if err := view.Err(); err != nil {
			return err
		}

		return newPrinter(cmd.OutOrStdout(), cfg.Output).print(rows, func(w io.Writer) {
			if long {
				processTable(rows).Render(w)
				return
			}
			writeProcesses(w, rows)
		})
	},
}

var threadsCmd = &cobra.Command{
	Use:   "threads <pid>",
	Short: "List the threads of a process",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pid, err := parsePID(args[0])
		if err != nil {
			return err
		}
		threads, err := finder.FindThreads(pid)
		if err != nil {
			return err
		}

		rows := make([]threadRow, 0, len(threads))
		for _, t := range threads {
			rows = append(rows, threadRow{PID: t.PID, TID: t.TID, BasePriority: t.BasePriority})
		}
		return newPrinter(cmd.OutOrStdout(), cfg.Output).print(rows, func(w io.Writer) {
			for _, r := range rows {
				fmt.Fprintln(w, r.TID)
			}
		})
	},
}

var modulesCmd = &cobra.Command{
	Use:   "modules <pid>",
	Short: "List the modules of a process",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pid, err := parsePID(args[0])
		if err != nil {
			return err
		}

		var modules []process.ModuleInfo
		if handleModules {
			modules, err = handleModuleList(pid)
		} else {
			modules, err = finder.FindModules(pid)
		}
		if err != nil {
			return err
		}

		rows := make([]moduleRow, 0, len(modules))
		for _, m := range modules {
			if !cfg.ModulePaths {
				m.Path = ""
			}
			rows = append(rows, toModuleRow(m))
		}
		return newPrinter(cmd.OutOrStdout(), cfg.Output).print(rows, func(w io.Writer) {
			if long {
				moduleTable(rows).Render(w)
				return
			}
			writeModules(w, rows)
		})
	},
}

func handleModuleList(pid process.ProcessID) ([]process.ModuleInfo, error) {
	p, err := helper.OpenByPID(pid)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	if cfg.ModulePaths {
		return p.ListModulesWithPaths()
	}
	return p.ListModules()
}

var treeCmd = &cobra.Command{
	Use:   "tree [pid]",
	Short: "Print the process tree below pid (default 0)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var pid process.ProcessID
		if len(args) == 1 {
			var err error
			if pid, err = parsePID(args[0]); err != nil {
				return err
			}
		}

		root, err := finder.GetProcessTree(pid)
		if err != nil {
			return err
		}

		row := toTreeRow(root)
		return newPrinter(cmd.OutOrStdout(), cfg.Output).print(row, func(w io.Writer) {
			writeTree(w, row, 0)
		})
	},
}

var imageCmd = &cobra.Command{
	Use:   "image <pid>",
	Short: "Print the executable path of a process",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pid, err := parsePID(args[0])
		if err != nil {
			return err
		}
		p, err := helper.OpenByPID(pid)
		if err != nil {
			return err
		}
		defer p.Close()

		path, err := p.ImagePath()
		if err != nil {
			return err
		}
		return newPrinter(cmd.OutOrStdout(), cfg.Output).print(map[string]any{"pid": pid, "image": path}, func(w io.Writer) {
			fmt.Fprintln(w, path)
		})
	},
}

var symbolCmd = &cobra.Command{
	Use:   "symbol <pid> <module!symbol>",
	Short: "Resolve a symbol address in a process",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pid, err := parsePID(args[0])
		if err != nil {
			return err
		}
		p, err := helper.OpenByPID(pid)
		if err != nil {
			return err
		}
		defer p.Close()

		addr, err := parseTarget(p, args[1])
		if err != nil {
			return err
		}
		row := symbolRow{Name: args[1], Address: addr.ToString()}
		return newPrinter(cmd.OutOrStdout(), cfg.Output).print(row, func(w io.Writer) {
			fmt.Fprintf(w, "%s %s\n", row.Address, row.Name)
		})
	},
}

var patchCmd = &cobra.Command{
	Use:   "patch <pid> <address|module!symbol[+offset]> <hex bytes>...",
	Short: "Write bytes into a process",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		pid, err := parsePID(args[0])
		if err != nil {
			return err
		}
		data, err := parseHexBytes(args[2:])
		if err != nil {
			return err
		}

		p, err := helper.OpenByPID(pid)
		if err != nil {
			return err
		}
		defer p.Close()

		addr, err := parseTarget(p, args[1])
		if err != nil {
			return err
		}

		if cfg.Output == config.OutputText {
			opts := hexdump.DefaultOptions()
			opts.BytesPerLine = cfg.HexdumpWidth
			opts.StartOffset = uint64(addr)
			opts.Color = cfg.Color
			hexdump.DumpToWriter(cmd.OutOrStdout(), data, opts)
		}

		var written process.ProcessMemorySize
		if !dryRun {
			if written, err = p.WriteMemory(addr, data); err != nil {
				return err
			}
		}

		row := patchRow{PID: pid, Address: addr.ToString(), Written: uint(written), Length: len(data)}
		return newPrinter(cmd.OutOrStdout(), cfg.Output).print(row, func(w io.Writer) {
			if dryRun {
				fmt.Fprintf(w, "dry run, %d bytes not written\n", len(data))
				return
			}
			fmt.Fprintf(w, "wrote %s of %d at %s\n", written.ToString(), len(data), row.Address)
		})
	},
}

func init() {
	psCmd.Flags().StringVar(&nameFilter, "name", "", "only list processes whose name contains this substring")
	psCmd.Flags().BoolVarP(&long, "long", "l", false, "table with parent pid and thread count")
	modulesCmd.Flags().BoolVarP(&long, "long", "l", false, "table with size and path")
	modulesCmd.Flags().BoolVar(&handleModules, "handle", false, "list through an opened process handle instead of a snapshot")
	patchCmd.Flags().BoolVar(&dryRun, "dry-run", false, "show the bytes without writing them")
}
