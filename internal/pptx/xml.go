package pptx

import (
	"encoding/xml"
	"fmt"
	"strings"
)

const (
	nsA = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsR = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsP = "http://schemas.openxmlformats.org/presentationml/2006/main"

	relBase     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/"
	xmlHeader   = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"
	pmlNS       = `xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `"`
	contentBase = "application/vnd.openxmlformats-officedocument.presentationml."
)

func esc(b *strings.Builder, s string) {
	_ = xml.EscapeText(b, []byte(s))
}

func writeXfrm(b *strings.Builder, f Frame) {
	fmt.Fprintf(b, `<a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm>`, f.Left, f.Top, f.Width, f.Height)
}

func (r *rect) writeXML(b *strings.Builder) {
	fmt.Fprintf(b, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="Rectangle %d"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr><p:spPr>`, r.id, r.id-1)
	writeXfrm(b, r.frame)
	fmt.Fprintf(b, `<a:prstGeom prst="rect"><a:avLst/></a:prstGeom><a:solidFill><a:srgbClr val="%s"/></a:solidFill><a:ln><a:noFill/></a:ln></p:spPr>`, r.fill)
	b.WriteString(`<p:txBody><a:bodyPr rtlCol="0" anchor="ctr"/><a:lstStyle/><a:p><a:endParaRPr lang="en-US" dirty="0"/></a:p></p:txBody></p:sp>`)
}

func (t *TextBox) writeXML(b *strings.Builder) {
	fmt.Fprintf(b, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="TextBox %d"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr><p:spPr>`, t.id, t.id-1)
	writeXfrm(b, t.frame)
	b.WriteString(`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom><a:noFill/></p:spPr><p:txBody>`)
	wrap := "none"
	if t.Wrap {
		wrap = "square"
	}
	anchor := t.Anchor
	if anchor == "" {
		anchor = AnchorTop
	}
	fmt.Fprintf(b, `<a:bodyPr wrap="%s" rtlCol="0" anchor="%s"/><a:lstStyle/>`, wrap, anchor)
	if len(t.Paragraphs) == 0 {
		b.WriteString(`<a:p><a:endParaRPr lang="en-US" dirty="0"/></a:p>`)
	}
	for _, p := range t.Paragraphs {
		p.writeXML(b)
	}
	b.WriteString(`</p:txBody></p:sp>`)
}

func (p *Paragraph) writeXML(b *strings.Builder) {
	b.WriteString(`<a:p>`)
	b.WriteString(`<a:pPr`)
	if p.Bullet {
		b.WriteString(` marL="342900" indent="-342900"`)
	}
	if p.Align != "" {
		fmt.Fprintf(b, ` algn="%s"`, p.Align)
	}
	b.WriteString(`>`)
	if p.SpaceBefore > 0 {
		fmt.Fprintf(b, `<a:spcBef><a:spcPts val="%d"/></a:spcBef>`, hundredths(p.SpaceBefore))
	}
	if p.SpaceAfter > 0 {
		fmt.Fprintf(b, `<a:spcAft><a:spcPts val="%d"/></a:spcAft>`, hundredths(p.SpaceAfter))
	}
	if p.Bullet {
		b.WriteString(`<a:buFont typeface="Arial"/><a:buChar char="&#8226;"/>`)
	}
	b.WriteString(`</a:pPr>`)
	var last Font
	for _, r := range p.Runs {
		for i, line := range strings.Split(r.Text, "\n") {
			if i > 0 {
				b.WriteString(`<a:br>`)
				writeRunProps(b, r.Font)
				b.WriteString(`</a:br>`)
			}
			if line == "" {
				continue
			}
			b.WriteString(`<a:r>`)
			writeRunProps(b, r.Font)
			b.WriteString(`<a:t>`)
			esc(b, line)
			b.WriteString(`</a:t></a:r>`)
		}
		last = r.Font
	}
	b.WriteString(`<a:endParaRPr lang="en-US"`)
	if last.Size > 0 {
		fmt.Fprintf(b, ` sz="%d"`, hundredths(last.Size))
	}
	b.WriteString(` dirty="0"/></a:p>`)
}

func writeRunProps(b *strings.Builder, f Font) {
	b.WriteString(`<a:rPr lang="en-US"`)
	if f.Size > 0 {
		fmt.Fprintf(b, ` sz="%d"`, hundredths(f.Size))
	}
	if f.Bold {
		b.WriteString(` b="1"`)
	}
	b.WriteString(` dirty="0">`)
	if f.Color != "" {
		fmt.Fprintf(b, `<a:solidFill><a:srgbClr val="%s"/></a:solidFill>`, f.Color)
	}
	if f.Typeface != "" {
		b.WriteString(`<a:latin typeface="`)
		esc(b, f.Typeface)
		b.WriteString(`"/>`)
	}
	b.WriteString(`</a:rPr>`)
}

func hundredths(pt float64) int { return int(pt*100 + 0.5) }

func (p *picture) writeXML(b *strings.Builder) {
	fmt.Fprintf(b, `<p:pic><p:nvPicPr><p:cNvPr id="%d" name="Picture %d" descr="`, p.id, p.id-1)
	esc(b, p.descr)
	b.WriteString(`"/><p:cNvPicPr><a:picLocks noChangeAspect="1"/></p:cNvPicPr><p:nvPr/></p:nvPicPr>`)
	fmt.Fprintf(b, `<p:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></p:blipFill><p:spPr>`, p.rid)
	writeXfrm(b, p.frame)
	b.WriteString(`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr></p:pic>`)
}

func (s *Slide) xml() []byte {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<p:sld ` + pmlNS + `><p:cSld><p:spTree>`)
	b.WriteString(`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>`)
	b.WriteString(`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>`)
	for _, sh := range s.shapes {
		sh.writeXML(&b)
	}
	b.WriteString(`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`)
	return []byte(b.String())
}

func (s *Slide) rels() []byte {
	rels := []relationship{{"rId1", "slideLayout", "../slideLayouts/slideLayout1.xml"}}
	for i, name := range s.images {
		rels = append(rels, relationship{fmt.Sprintf("rId%d", i+2), "image", "../media/" + name})
	}
	return relsXML(rels)
}

type relationship struct {
	id, kind, target string
}

func relsXML(rels []relationship) []byte {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	for _, r := range rels {
		typ := r.kind
		if !strings.HasPrefix(typ, "http") {
			typ = relBase + typ
		}
		fmt.Fprintf(&b, `<Relationship Id="%s" Type="%s" Target="%s"/>`, r.id, typ, r.target)
	}
	b.WriteString(`</Relationships>`)
	return []byte(b.String())
}
