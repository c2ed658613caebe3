package pptx

import (
	"fmt"
	"strings"
	"time"
)

type part struct {
	name string
	data []byte
}

func (d *Deck) parts() []part {
	ps := []part{
		{"[Content_Types].xml", d.contentTypes()},
		{"_rels/.rels", relsXML([]relationship{
			{"rId1", "officeDocument", "ppt/presentation.xml"},
			{"rId2", "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties", "docProps/core.xml"},
			{"rId3", "extended-properties", "docProps/app.xml"},
		})},
		{"docProps/app.xml", d.appProps()},
		{"docProps/core.xml", d.coreProps()},
		{"ppt/presentation.xml", d.presentation()},
		{"ppt/_rels/presentation.xml.rels", d.presentationRels()},
		{"ppt/presProps.xml", []byte(xmlHeader + `<p:presentationPr ` + pmlNS + `/>`)},
		{"ppt/viewProps.xml", []byte(xmlHeader + `<p:viewPr ` + pmlNS + `><p:gridSpacing cx="76200" cy="76200"/></p:viewPr>`)},
		{"ppt/tableStyles.xml", []byte(xmlHeader + `<a:tblStyleLst xmlns:a="` + nsA + `" def="{5C22544A-7EE6-4342-B048-85BDC9FD1C3A}"/>`)},
		{"ppt/theme/theme1.xml", d.themeXML()},
		{"ppt/slideMasters/slideMaster1.xml", []byte(slideMasterXML)},
		{"ppt/slideMasters/_rels/slideMaster1.xml.rels", relsXML([]relationship{
			{"rId1", "slideLayout", "../slideLayouts/slideLayout1.xml"},
			{"rId2", "theme", "../theme/theme1.xml"},
		})},
		{"ppt/slideLayouts/slideLayout1.xml", []byte(slideLayoutXML)},
		{"ppt/slideLayouts/_rels/slideLayout1.xml.rels", relsXML([]relationship{
			{"rId1", "slideMaster", "../slideMasters/slideMaster1.xml"},
		})},
	}
	for i, s := range d.slides {
		ps = append(ps,
			part{fmt.Sprintf("ppt/slides/slide%d.xml", i+1), s.xml()},
			part{fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i+1), s.rels()},
		)
	}
	for _, m := range d.media {
		ps = append(ps, part{"ppt/media/" + m.name, m.data})
	}
	return ps
}

func (d *Deck) contentTypes() []byte {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	b.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	b.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	b.WriteString(`<Default Extension="png" ContentType="image/png"/>`)
	b.WriteString(`<Default Extension="jpeg" ContentType="image/jpeg"/>`)
	override := func(name, typ string) {
		fmt.Fprintf(&b, `<Override PartName="/%s" ContentType="%s"/>`, name, typ)
	}
	override("ppt/presentation.xml", contentBase+"presentation.main+xml")
	override("ppt/slideMasters/slideMaster1.xml", contentBase+"slideMaster+xml")
	override("ppt/slideLayouts/slideLayout1.xml", contentBase+"slideLayout+xml")
	for i := range d.slides {
		override(fmt.Sprintf("ppt/slides/slide%d.xml", i+1), contentBase+"slide+xml")
	}
	override("ppt/presProps.xml", contentBase+"presProps+xml")
	override("ppt/viewProps.xml", contentBase+"viewProps+xml")
	override("ppt/tableStyles.xml", contentBase+"tableStyles+xml")
	override("ppt/theme/theme1.xml", "application/vnd.openxmlformats-officedocument.theme+xml")
	override("docProps/core.xml", "application/vnd.openxmlformats-package.core-properties+xml")
	override("docProps/app.xml", "application/vnd.openxmlformats-officedocument.extended-properties+xml")
	b.WriteString(`</Types>`)
	return []byte(b.String())
}

func (d *Deck) presentation() []byte {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<p:presentation ` + pmlNS + ` saveSubsetFonts="1">`)
	b.WriteString(`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst><p:sldIdLst>`)
	for i := range d.slides {
		fmt.Fprintf(&b, `<p:sldId id="%d" r:id="rId%d"/>`, 256+i, i+2)
	}
	b.WriteString(`</p:sldIdLst>`)
	fmt.Fprintf(&b, `<p:sldSz cx="%d" cy="%d"/><p:notesSz cx="%d" cy="%d"/>`, d.Width, d.Height, d.Height, d.Width)
	b.WriteString(`</p:presentation>`)
	return []byte(b.String())
}

func (d *Deck) presentationRels() []byte {
	rels := []relationship{{"rId1", "slideMaster", "slideMasters/slideMaster1.xml"}}
	for i := range d.slides {
		rels = append(rels, relationship{fmt.Sprintf("rId%d", i+2), "slide", fmt.Sprintf("slides/slide%d.xml", i+1)})
	}
	next := len(d.slides) + 2
	for _, r := range []struct{ kind, target string }{
		{"presProps", "presProps.xml"},
		{"viewProps", "viewProps.xml"},
		{"theme", "theme/theme1.xml"},
		{"tableStyles", "tableStyles.xml"},
	} {
		rels = append(rels, relationship{fmt.Sprintf("rId%d", next), r.kind, r.target})
		next++
	}
	return relsXML(rels)
}

func (d *Deck) appProps() []byte {
	return []byte(fmt.Sprintf(xmlHeader+`<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties" xmlns:vt="http://schemas.openxmlformats.org/officeDocument/2006/docPropsVTypes"><Application>surveydeck</Application><PresentationFormat>On-screen Show (4:3)</PresentationFormat><Slides>%d</Slides></Properties>`, len(d.slides)))
}

func (d *Deck) coreProps() []byte {
	ts := d.now().UTC().Format(time.RFC3339)
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:dcmitype="http://purl.org/dc/dcmitype/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">`)
	b.WriteString(`<dc:title>`)
	esc(&b, d.Title)
	b.WriteString(`</dc:title><dc:creator>`)
	esc(&b, d.Author)
	b.WriteString(`</dc:creator>`)
	fmt.Fprintf(&b, `<dcterms:created xsi:type="dcterms:W3CDTF">%s</dcterms:created><dcterms:modified xsi:type="dcterms:W3CDTF">%s</dcterms:modified>`, ts, ts)
	b.WriteString(`</cp:coreProperties>`)
	return []byte(b.String())
}

func (d *Deck) themeXML() []byte {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<a:theme xmlns:a="` + nsA + `" name="surveydeck"><a:themeElements>`)
	b.WriteString(`<a:clrScheme name="surveydeck">`)
	b.WriteString(`<a:dk1><a:sysClr val="windowText" lastClr="000000"/></a:dk1><a:lt1><a:sysClr val="window" lastClr="FFFFFF"/></a:lt1>`)
	b.WriteString(`<a:dk2><a:srgbClr val="3C3C3C"/></a:dk2><a:lt2><a:srgbClr val="F0F8FF"/></a:lt2>`)
	for i, c := range []string{"0066CC", "787878", "4F81BD", "9BBB59", "8064A2", "F79646"} {
		fmt.Fprintf(&b, `<a:accent%d><a:srgbClr val="%s"/></a:accent%d>`, i+1, c, i+1)
	}
	b.WriteString(`<a:hlink><a:srgbClr val="0066CC"/></a:hlink><a:folHlink><a:srgbClr val="800080"/></a:folHlink></a:clrScheme>`)
	b.WriteString(`<a:fontScheme name="surveydeck"><a:majorFont><a:latin typeface="`)
	esc(&b, d.Theme.MajorFont)
	b.WriteString(`"/><a:ea typeface=""/><a:cs typeface=""/></a:majorFont><a:minorFont><a:latin typeface="`)
	esc(&b, d.Theme.MinorFont)
	b.WriteString(`"/><a:ea typeface=""/><a:cs typeface=""/></a:minorFont></a:fontScheme>`)
	b.WriteString(`<a:fmtScheme name="surveydeck"><a:fillStyleLst>`)
	b.WriteString(strings.Repeat(`<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>`, 3))
	b.WriteString(`</a:fillStyleLst><a:lnStyleLst>`)
	b.WriteString(strings.Repeat(`<a:ln w="9525"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln>`, 3))
	b.WriteString(`</a:lnStyleLst><a:effectStyleLst>`)
	b.WriteString(strings.Repeat(`<a:effectStyle><a:effectLst/></a:effectStyle>`, 3))
	b.WriteString(`</a:effectStyleLst><a:bgFillStyleLst>`)
	b.WriteString(strings.Repeat(`<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>`, 3))
	b.WriteString(`</a:bgFillStyleLst></a:fmtScheme></a:themeElements><a:objectDefaults/><a:extraClrSchemeLst/></a:theme>`)
	return []byte(b.String())
}

const emptyTree = `<p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr></p:spTree>`

const slideMasterXML = xmlHeader + `<p:sldMaster ` + pmlNS + `>` +
	`<p:cSld><p:bg><p:bgRef idx="1001"><a:schemeClr val="bg1"/></p:bgRef></p:bg>` + emptyTree + `</p:cSld>` +
	`<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>` +
	`<p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst>` +
	`<p:txStyles>` +
	`<p:titleStyle><a:lvl1pPr algn="l"><a:defRPr sz="4400"><a:solidFill><a:schemeClr val="tx1"/></a:solidFill><a:latin typeface="+mj-lt"/></a:defRPr></a:lvl1pPr></p:titleStyle>` +
	`<p:bodyStyle><a:lvl1pPr><a:defRPr sz="1800"><a:solidFill><a:schemeClr val="tx1"/></a:solidFill><a:latin typeface="+mn-lt"/></a:defRPr></a:lvl1pPr></p:bodyStyle>` +
	`<p:otherStyle><a:lvl1pPr><a:defRPr sz="1800"><a:solidFill><a:schemeClr val="tx1"/></a:solidFill><a:latin typeface="+mn-lt"/></a:defRPr></a:lvl1pPr></p:otherStyle>` +
	`</p:txStyles></p:sldMaster>`

const slideLayoutXML = xmlHeader + `<p:sldLayout ` + pmlNS + ` type="blank" preserve="1">` +
	`<p:cSld name="Blank">` + emptyTree + `</p:cSld>` +
	`<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sldLayout>`
