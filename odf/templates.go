package odf

import (
	"fmt"
	"time"
)

// Package MIME types, written verbatim as the mimetype entry.
const (
	MIMETypeODT = "application/vnd.oasis.opendocument.text"
	MIMETypeODS = "application/vnd.oasis.opendocument.spreadsheet"
)

// Generator is written to meta:generator in every package.
const Generator = "odfpack"

// Bundle holds the boilerplate documents packaged next to content.xml.
type Bundle struct {
	Styles   string
	Meta     string
	Settings string
}

// MIMEType returns the package MIME type for t.
func MIMEType(t DocumentType) (string, error) {
	switch t {
	case TypeODT:
		return MIMETypeODT, nil
	case TypeODS:
		return MIMETypeODS, nil
	default:
		return "", ErrUnknownType
	}
}

// Templates returns the boilerplate for t. The metadata document embeds now
// as its creation date; everything else is constant.
func Templates(t DocumentType, now time.Time) (Bundle, error) {
	var styles string
	switch t {
	case TypeODT:
		styles = stylesODT
	case TypeODS:
		styles = stylesODS
	default:
		return Bundle{}, ErrUnknownType
	}
	return Bundle{
		Styles:   styles,
		Meta:     fmt.Sprintf(metaTemplate, Generator, now.UTC().Format(isoMillis)),
		Settings: settingsXML,
	}, nil
}

const isoMillis = "2006-01-02T15:04:05.000Z07:00"

const stylesODT = `<?xml version="1.0" encoding="UTF-8"?>
<office:document-styles
 xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0"
 xmlns:style="urn:oasis:names:tc:opendocument:xmlns:style:1.0"
 xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0"
 xmlns:table="urn:oasis:names:tc:opendocument:xmlns:table:1.0"
 xmlns:draw="urn:oasis:names:tc:opendocument:xmlns:drawing:1.0"
 office:version="1.2">
 <office:styles/>
 <office:automatic-styles/>
 <office:master-styles>
   <style:master-page style:name="Standard" style:page-layout-name="Mpm1"/>
 </office:master-styles>
</office:document-styles>
`

const stylesODS = `<?xml version="1.0" encoding="UTF-8"?>
<office:document-styles
 xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0"
 xmlns:style="urn:oasis:names:tc:opendocument:xmlns:style:1.0"
 xmlns:table="urn:oasis:names:tc:opendocument:xmlns:table:1.0"
 xmlns:fo="urn:oasis:names:tc:opendocument:xmlns:xsl-fo-compatible:1.0"
 office:version="1.2">
 <office:styles>
   <style:default-style style:family="table-cell"/>
 </office:styles>
 <office:automatic-styles/>
 <office:master-styles>
   <style:master-page style:name="Default" style:page-layout-name="Mpm1"/>
 </office:master-styles>
</office:document-styles>
`

const metaTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<office:document-meta
 xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0"
 xmlns:meta="urn:oasis:names:tc:opendocument:xmlns:meta:1.0"
 office:version="1.2">
 <office:meta>
   <meta:generator>%s</meta:generator>
   <meta:creation-date>%s</meta:creation-date>
 </office:meta>
</office:document-meta>
`

const settingsXML = `<?xml version="1.0" encoding="UTF-8"?>
<office:document-settings
 xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0"
 xmlns:config="urn:oasis:names:tc:opendocument:xmlns:config:1.0"
 office:version="1.2">
 <office:settings>
   <config:config-item-set config:name="ooo:view-settings"/>
   <config:config-item-set config:name="ooo:configuration-settings"/>
 </office:settings>
</office:document-settings>
`
