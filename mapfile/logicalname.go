package mapfile

import (
	"encoding/xml"
	"io"
	"os"

	"github.com/rob-gra/go-deviceaccess/catalogue"
	"github.com/rob-gra/go-deviceaccess/deverr"
)

// Logical-name-map XML parsing uses stdlib encoding/xml: no XML library
// appears anywhere in the reference corpus, and the format (spec.md §6)
// is a small, fixed, non-streaming document, well within what the
// standard decoder handles directly.

type xmlLogicalNameMap struct {
	XMLName xml.Name     `xml:"logicalNameMap"`
	Entries []xmlLNEntry `xml:"register"`
}

type xmlLNEntry struct {
	Name        string `xml:"name,attr"`
	Type        string `xml:"type,attr"`
	TargetPath  string `xml:"targetPath"`
	RangeOffset *int   `xml:"rangeOffset"`
	RangeLength *int   `xml:"rangeLength"`
	Channel     *int   `xml:"channel"`
	Value       *int32 `xml:"value"`
}

// LoadLogicalNameMap parses a logical-name-map XML file into a catalogue
// of Info entries carrying TargetKind/TargetPath/RangeOffset/RangeLength/
// ChannelIndex/ConstantValue (spec.md §6): each <register> names one of
// REGISTER, RANGE, CHANNEL, INT_CONSTANT, INT_VARIABLE via its type
// attribute.
//
// Example document:
//
//	<logicalNameMap>
//	  <register name="/temperature" type="REGISTER">
//	    <targetPath>/board/temp_raw</targetPath>
//	  </register>
//	  <register name="/samples/first" type="RANGE">
//	    <targetPath>/board/samples</targetPath>
//	    <rangeOffset>0</rangeOffset>
//	    <rangeLength>2</rangeLength>
//	  </register>
//	  <register name="/status/busy" type="CHANNEL">
//	    <targetPath>/board/status</targetPath>
//	    <channel>0</channel>
//	  </register>
//	  <register name="/version" type="INT_CONSTANT">
//	    <value>3</value>
//	  </register>
//	  <register name="/setpoint" type="INT_VARIABLE">
//	    <value>0</value>
//	  </register>
//	</logicalNameMap>
func LoadLogicalNameMap(path string) (*catalogue.Catalogue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, deverr.Wrap(deverr.CannotOpenMapFile, err, "opening logical name map %q", path)
	}
	defer f.Close()
	return parseLogicalNameMap(f, path)
}

func parseLogicalNameMap(r io.Reader, path string) (*catalogue.Catalogue, error) {
	var doc xmlLogicalNameMap
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, deverr.Wrap(deverr.CannotOpenMapFile, err, "parsing logical name map %q", path)
	}

	cat := catalogue.New()
	for _, e := range doc.Entries {
		if e.Name == "" {
			return nil, deverr.New(deverr.CannotOpenMapFile, "%s: register entry missing name attribute", path)
		}
		info := catalogue.Info{Path: catalogue.NewPath(e.Name), Readable: true, Writeable: true}

		switch e.Type {
		case "REGISTER":
			info.Kind = catalogue.Register
			info.TargetPath = catalogue.NewPath(e.TargetPath)
		case "RANGE":
			info.Kind = catalogue.Range
			info.TargetPath = catalogue.NewPath(e.TargetPath)
			if e.RangeOffset != nil {
				info.RangeOffset = *e.RangeOffset
			}
			if e.RangeLength != nil {
				info.RangeLength = *e.RangeLength
			}
		case "CHANNEL":
			info.Kind = catalogue.Channel
			info.TargetPath = catalogue.NewPath(e.TargetPath)
			if e.Channel != nil {
				info.ChannelIndex = *e.Channel
			}
		case "INT_CONSTANT":
			info.Kind = catalogue.IntConstant
			info.Writeable = false
			if e.Value != nil {
				info.ConstantValue = *e.Value
			}
		case "INT_VARIABLE":
			info.Kind = catalogue.IntVariable
			if e.Value != nil {
				info.ConstantValue = *e.Value
			}
		default:
			return nil, deverr.New(deverr.CannotOpenMapFile, "%s: register %q has unknown type %q", path, e.Name, e.Type)
		}

		cat.Add(info)
	}
	return cat, nil
}
