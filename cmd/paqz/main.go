// Command paqz is the archiver's command-line front end: create an
// archive from a list of files, or extract an existing one.
// Grounded on main() in
// _examples/original_source/paq8b/src/Paq8b.cpp.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/avesus/paq/archive"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [-0..-9] archive.paqz [file...]\n", filepath.Base(os.Args[0]))
	fmt.Fprintf(os.Stderr, "  create: paqz [-0..-9] archive.paqz file1 [file2 ...]\n")
	fmt.Fprintf(os.Stderr, "  extract: paqz archive.paqz\n")
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "paqz:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	option := byte('5')
	if len(args) > 0 && len(args[0]) == 2 && args[0][0] == '-' && args[0][1] >= '0' && args[0][1] <= '9' {
		option = args[0][1]
		args = args[1:]
	}
	if len(args) == 0 {
		usage()
		return fmt.Errorf("missing archive name")
	}

	archiveName := args[0]
	files := args[1:]

	if len(files) == 0 {
		return extract(archiveName)
	}
	return create(archiveName, option, files)
}

func create(archiveName string, option byte, files []string) error {
	entries := make([]archive.Entry, 0, len(files))
	contents := make([][]byte, 0, len(files))

	for _, name := range files {
		data, err := os.ReadFile(name)
		if err != nil {
			return fmt.Errorf("open %s: %w", name, err)
		}
		entries = append(entries, archive.Entry{Name: filepath.Base(name), Size: int64(len(data))})
		contents = append(contents, data)
	}

	out, err := os.Create(archiveName)
	if err != nil {
		return fmt.Errorf("create %s: %w", archiveName, err)
	}
	defer out.Close()

	w, err := archive.NewWriter(out, option, entries)
	if err != nil {
		return err
	}
	for i, name := range files {
		if err := w.WriteFile(filepath.Base(name), contents[i]); err != nil {
			return fmt.Errorf("compress %s: %w", name, err)
		}
	}
	return w.Close()
}

func extract(archiveName string) error {
	in, err := os.Open(archiveName)
	if err != nil {
		return fmt.Errorf("open %s: %w", archiveName, err)
	}
	defer in.Close()

	r, err := archive.NewReader(in)
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}

	for _, e := range r.Entries {
		data, err := r.ReadFile(e.Size)
		if err != nil {
			return fmt.Errorf("extract %s: %w", e.Name, err)
		}
		if err := os.WriteFile(e.Name, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", e.Name, err)
		}
		fmt.Printf("%s\t%d bytes\n", e.Name, len(data))
	}
	return nil
}
