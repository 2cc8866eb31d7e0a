package mapfile

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rob-gra/go-deviceaccess/catalogue"
	"github.com/rob-gra/go-deviceaccess/deverr"
	"github.com/rob-gra/go-deviceaccess/dtype"
)

// LoadNumericAddressMap parses a numeric address map file (spec.md §6):
// one register per non-blank, non-comment ('#') line, whitespace or
// comma separated:
//
//	name  bar  address  nWords  width  fractionalBits  signed
//
// address is parsed with strconv.ParseUint base 0, so both "0x10" and
// "16" are accepted. Every register is marked both readable and
// writeable; the map format carries no access-mode column, matching the
// reference numeric-address-map backend's behaviour of exposing the raw
// I/O contract and leaving access restriction to higher layers.
func LoadNumericAddressMap(path string) (*catalogue.Catalogue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, deverr.Wrap(deverr.CannotOpenMapFile, err, "opening numeric address map %q", path)
	}
	defer f.Close()
	return parseNumericAddressMap(f, path)
}

func parseNumericAddressMap(r io.Reader, path string) (*catalogue.Catalogue, error) {
	cat := catalogue.New()
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
		if len(fields) != 7 {
			return nil, deverr.New(deverr.CannotOpenMapFile, "%s:%d: expected 7 fields (name,bar,address,nWords,width,fractionalBits,signed), got %d", path, lineNo, len(fields))
		}

		name := fields[0]
		bar, err := strconv.ParseUint(fields[1], 0, 8)
		if err != nil {
			return nil, deverr.Wrap(deverr.CannotOpenMapFile, err, "%s:%d: bar", path, lineNo)
		}
		address, err := strconv.ParseUint(fields[2], 0, 32)
		if err != nil {
			return nil, deverr.Wrap(deverr.CannotOpenMapFile, err, "%s:%d: address", path, lineNo)
		}
		nWords, err := strconv.Atoi(fields[3])
		if err != nil {
			return nil, deverr.Wrap(deverr.CannotOpenMapFile, err, "%s:%d: nWords", path, lineNo)
		}
		width, err := strconv.Atoi(fields[4])
		if err != nil {
			return nil, deverr.Wrap(deverr.CannotOpenMapFile, err, "%s:%d: width", path, lineNo)
		}
		fractionalBits, err := strconv.Atoi(fields[5])
		if err != nil {
			return nil, deverr.Wrap(deverr.CannotOpenMapFile, err, "%s:%d: fractionalBits", path, lineNo)
		}
		signed, err := strconv.ParseBool(fields[6])
		if err != nil {
			return nil, deverr.Wrap(deverr.CannotOpenMapFile, err, "%s:%d: signed", path, lineNo)
		}

		cat.Add(catalogue.Info{
			Path:             catalogue.NewPath(name),
			NumberOfChannels: 1,
			NumberOfSamples:  nWords,
			ValueType:        valueTypeForWidth(width, signed),
			Readable:         true,
			Writeable:        true,
			Width:            width,
			FractionalBits:   fractionalBits,
			Signed:           signed,
			Bar:              uint8(bar),
			Address:          uint32(address),
			Kind:             catalogue.Numeric,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, deverr.Wrap(deverr.CannotOpenMapFile, err, "reading numeric address map %q", path)
	}
	return cat, nil
}

// valueTypeForWidth picks a reasonable default dtype.DataType for a
// register description's natural width, used for diagnostics (the
// catalogue entry's ValueType field); the accessor's actual cooked type
// is whatever T the caller instantiates GetRegisterAccessor with, which
// this field does not constrain.
func valueTypeForWidth(width int, signed bool) dtype.DataType {
	switch {
	case width <= 8:
		if signed {
			return dtype.Int8
		}
		return dtype.Uint8
	case width <= 16:
		if signed {
			return dtype.Int16
		}
		return dtype.Uint16
	case width <= 32:
		if signed {
			return dtype.Int32
		}
		return dtype.Uint32
	default:
		if signed {
			return dtype.Int64
		}
		return dtype.Uint64
	}
}
