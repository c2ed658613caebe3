package pptx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
)

// SlideSummary describes one slide of an existing package.
type SlideSummary struct {
	Number     int
	Paragraphs []string
	Pictures   int
	Colors     []string
}

// HasColor reports whether any shape or run on the slide uses c.
func (s SlideSummary) HasColor(c Color) bool {
	for _, v := range s.Colors {
		if strings.EqualFold(v, string(c)) {
			return true
		}
	}
	return false
}

// Inspect reads a saved deck and summarizes its slides in presentation order.
func Inspect(path string) ([]SlideSummary, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pptx: %w", err)
	}
	return InspectBytes(b)
}

// InspectBytes is Inspect over an in-memory package.
func InspectBytes(b []byte) ([]SlideSummary, error) {
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("open pptx: %w", err)
	}
	pres := readZipFile(zr, "ppt/presentation.xml")
	if len(pres) == 0 {
		return nil, fmt.Errorf("presentation.xml not found in package")
	}
	rels := parseRelationships(readZipFile(zr, "ppt/_rels/presentation.xml.rels"))
	var out []SlideSummary
	for i, rid := range parseSlideIDs(pres) {
		target, ok := rels[rid]
		if !ok {
			return nil, fmt.Errorf("slide relationship %s missing", rid)
		}
		data := readZipFile(zr, normalizeRelPath(target))
		if len(data) == 0 {
			return nil, fmt.Errorf("slide part %s missing", target)
		}
		s, err := parseSlide(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", target, err)
		}
		s.Number = i + 1
		out = append(out, s)
	}
	return out, nil
}

func readZipFile(zr *zip.Reader, name string) []byte {
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil
			}
			defer rc.Close()
			b, _ := io.ReadAll(rc)
			return b
		}
	}
	return nil
}

// normalizeRelPath resolves a presentation relationship target to a zip path.
func normalizeRelPath(rel string) string {
	if strings.HasPrefix(rel, "/") {
		return strings.TrimPrefix(rel, "/")
	}
	return path.Clean(path.Join("ppt", rel))
}

func parseRelationships(data []byte) map[string]string {
	out := map[string]string{}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == "Relationship" {
			var id, target string
			for _, a := range se.Attr {
				switch a.Name.Local {
				case "Id":
					id = a.Value
				case "Target":
					target = a.Value
				}
			}
			if id != "" && target != "" {
				out[id] = target
			}
		}
	}
}

func parseSlideIDs(data []byte) []string {
	var ids []string
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return ids
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == "sldId" {
			for _, a := range se.Attr {
				if a.Name.Local == "id" && a.Name.Space == nsR {
					ids = append(ids, a.Value)
				}
			}
		}
	}
}

func parseSlide(data []byte) (SlideSummary, error) {
	var s SlideSummary
	var para strings.Builder
	inPara, inText := false, false
	seen := map[string]bool{}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return s, nil
		}
		if err != nil {
			return s, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				if t.Name.Space == nsA {
					inPara = true
					para.Reset()
				}
			case "t":
				inText = inPara
			case "br":
				if inPara {
					para.WriteByte('\n')
				}
			case "pic":
				s.Pictures++
			case "srgbClr":
				for _, a := range t.Attr {
					if a.Name.Local == "val" && !seen[a.Value] {
						seen[a.Value] = true
						s.Colors = append(s.Colors, a.Value)
					}
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if t.Name.Space == nsA && inPara {
					inPara = false
					if txt := para.String(); strings.TrimSpace(txt) != "" {
						s.Paragraphs = append(s.Paragraphs, txt)
					}
				}
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
}
