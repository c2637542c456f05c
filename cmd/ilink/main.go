// ilink CLI - links the class hierarchy described by an ilink.toml and
// prints the resulting interface dispatch tables.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/tliron/commonlog"

	"github.com/chazu/ilink/manifest"
	"github.com/chazu/ilink/store"
	"github.com/chazu/ilink/vm"
	"github.com/chazu/ilink/vm/linker"
	"github.com/chazu/ilink/vm/snapshot"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	verbose := flag.Bool("v", false, "Verbose output")
	className := flag.String("class", "", "Only print this class")
	dbPath := flag.String("db", "", "Snapshot database (overrides [store] path)")
	snapOut := flag.String("snapshot", "", "Write the CBOR snapshot of -class to this file")
	access := flag.String("access", "", "Override policy: jvm or open (overrides [link] access)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ilink [options] [dir]\n\n")
		fmt.Fprintf(os.Stderr, "Links the classes declared in ilink.toml (searched upward from dir) and prints their itables.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  ilink ./shapes                          # Print every table\n")
		fmt.Fprintf(os.Stderr, "  ilink -class Square ./shapes            # Print one class\n")
		fmt.Fprintf(os.Stderr, "  ilink -class Square -snapshot sq.cbor   # Export a snapshot\n")
	}
	flag.Parse()

	dir := "."
	if flag.NArg() > 0 {
		dir = flag.Arg(0)
	}

	if err := run(dir, *verbose, *className, *dbPath, *snapOut, *access); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(dir string, verbose bool, className, dbPath, snapOut, access string) error {
	m, err := manifest.FindAndLoad(dir)
	if err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("no %s found in %s or its parents", manifest.FileName, dir)
	}

	verbosity := 0
	if verbose || m.Link.Verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)

	if access == "" {
		access = m.Link.Access
	}
	policy, err := vm.PolicyByName(access)
	if err != nil {
		return err
	}

	reg := vm.NewRegistry()
	klasses, err := m.Define(reg)
	if err != nil {
		return err
	}
	if err := linker.New(linker.WithAccessPolicy(policy)).LinkAll(klasses); err != nil {
		return err
	}

	if className != "" {
		k := reg.Lookup(className)
		if k == nil {
			return fmt.Errorf("unknown class %s", className)
		}
		klasses = []*vm.Klass{k}
	}
	for _, k := range klasses {
		printKlass(os.Stdout, k)
	}

	if dbPath == "" {
		dbPath = m.StorePath()
	}
	if dbPath != "" {
		if err := persist(dbPath, klasses); err != nil {
			return err
		}
		if verbose {
			fmt.Printf("Stored %d snapshots in %s\n", len(klasses), dbPath)
		}
	}

	if snapOut != "" {
		if className == "" {
			return fmt.Errorf("-snapshot requires -class")
		}
		snap, err := snapshot.Take(klasses[0])
		if err != nil {
			return err
		}
		data, err := snapshot.Marshal(snap)
		if err != nil {
			return err
		}
		if err := os.WriteFile(snapOut, data, 0644); err != nil {
			return err
		}
	}
	return nil
}

func persist(path string, klasses []*vm.Klass) error {
	s, err := store.Open(path)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	for _, k := range klasses {
		snap, err := snapshot.Take(k)
		if err != nil {
			return err
		}
		if err := s.Save(ctx, snap); err != nil {
			return err
		}
	}
	return nil
}

func printKlass(w io.Writer, k *vm.Klass) {
	t := k.Tables()
	st := k.Symbols()
	if k.IsInterface() {
		fmt.Fprintf(w, "interface %s (id %d)\n", k.Name, k.ID())
		fmt.Fprintf(w, "  closure:")
		for _, i := range t.KlassTable {
			fmt.Fprintf(w, " %s", i.Name)
		}
		fmt.Fprintln(w)
		return
	}

	fmt.Fprintf(w, "class %s (id %d, generation %d)\n", k.Name, k.ID(), t.Generation)
	for i, iface := range t.KlassTable {
		fmt.Fprintf(w, "  itable %s (id %d)\n", iface.Name, iface.ID())
		for _, r := range t.ITables[i] {
			im := iface.Methods()[r.Slot]
			fmt.Fprintf(w, "    [%d] %s%s -> %s%s\n", r.Slot,
				st.Name(im.Name), st.Name(im.Signature), r.Method, describe(r))
		}
	}
	if len(t.Mirandas) > 0 {
		fmt.Fprintf(w, "  mirandas:\n")
		for i, r := range t.Mirandas {
			fmt.Fprintf(w, "    [%d] vtable %d: %s%s\n", i, r.Slot, r.Method, describe(r))
		}
	}
}

func describe(r vm.MethodRef) string {
	switch {
	case r.IsPoison():
		return " (conflicting defaults)"
	case !r.HasCode():
		return " (abstract)"
	case r.IsDefault():
		return " (default)"
	}
	return ""
}
