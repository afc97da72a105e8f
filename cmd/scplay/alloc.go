package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/chabad360/go-scsynth/alloc"
	"github.com/chabad360/go-scsynth/store"
)

var allocRequests []int

func init() {
	cmd := newAllocCmd()
	cmd.Flags().IntSliceVar(&allocRequests, "audio", nil, "Allocate audio buses of these sizes first")
	rootCmd.AddCommand(cmd)
}

func newAllocCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "alloc",
		Short: "Show the allocators after a reset",
		Long: `The alloc command resets a local store with the configured server options
and prints the free lists of each resource space and the next node ID.

Example:
  scplay alloc
  scplay alloc --config scsynth.yaml --audio 2,2,8`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadFlags(cmd)
			if err != nil {
				return err
			}
			return runAlloc(cmd.OutOrStdout(), cfg, allocRequests)
		},
	}
}

func runAlloc(w io.Writer, cfg Config, audio []int) error {
	st := store.New(store.WithOptions(cfg.Options))
	if err := st.Reset(cfg.Server); err != nil {
		return err
	}

	for _, n := range audio {
		bus, err := st.AllocAudioBus(cfg.Server, n)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "allocated %d audio channels at %d\n", n, bus)
	}

	for _, slot := range []store.Slot[alloc.State]{store.AudioBuses, store.ControlBuses, store.Buffers} {
		fmt.Fprintf(w, "%-13s", slot.Name())
		for _, b := range alloc.FreeList(store.Get(st, cfg.Server, slot)) {
			fmt.Fprintf(w, " [%d,%d)", b.Addr, b.End())
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "%-13s %d\n", "nextNodeID", st.NextNodeID(cfg.Server))
	return nil
}
