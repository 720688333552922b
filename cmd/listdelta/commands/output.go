package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Sumatoshi-tech/listdelta/pkg/eventcodec"
)

const (
	flagJSON = "json"
	flagDump = "dump"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	err := enc.Encode(v)
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	return nil
}

func writeDump(path string, records []eventcodec.Record) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dump: %w", err)
	}

	defer func() {
		closeErr := f.Close()
		if err == nil && closeErr != nil {
			err = fmt.Errorf("close dump: %w", closeErr)
		}
	}()

	return eventcodec.Encode(f, records)
}
