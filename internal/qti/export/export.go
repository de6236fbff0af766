package export

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/mind-engage/examsim/internal/exam"
	"github.com/mind-engage/examsim/internal/extract"
)

// Small exporter that writes a manifest and one single-choice item per question.
// Only a key found in the source document is exported as the correct response.

func BuildPackage(ex exam.Exam) ([]byte, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	// manifest
	mf := imsManifest{
		Xmlns:      "http://www.imsglobal.org/xsd/imscp_v1p1",
		Identifier: ex.ID,
		Resources:  []imsResource{},
	}
	realKey := ex.AnswerKey.Source == extract.KeyReal
	for i, q := range ex.Questions {
		id := itemID(i, q)
		itemName := id + ".xml"
		mf.Resources = append(mf.Resources, imsResource{
			Identifier: id,
			Type:       "imsqti_item_xmlv2p1",
			Href:       itemName,
			Files:      []imsFile{{Href: itemName}},
		})
		correct := ""
		if realKey {
			correct = ex.AnswerKey.Lookup(q.Number)
		}
		w, err := zw.Create(itemName)
		if err != nil {
			return nil, err
		}
		if _, err := io.WriteString(w, buildItemXML(id, q, correct)); err != nil {
			return nil, err
		}
	}
	// write manifest
	mfw, err := zw.Create("imsmanifest.xml")
	if err != nil {
		return nil, err
	}
	b, err := xml.MarshalIndent(mf, "", "  ")
	if err != nil {
		return nil, err
	}
	mfw.Write([]byte(xml.Header))
	mfw.Write(b)

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// itemID stays unique when a document repeats a question number.
func itemID(index int, q extract.Question) string {
	return fmt.Sprintf("item-%03d-q%d", index+1, q.Number)
}

// --- mini XML model for manifest (export only) ---
type imsManifest struct {
	XMLName    xml.Name      `xml:"manifest"`
	Xmlns      string        `xml:"xmlns,attr,omitempty"`
	Identifier string        `xml:"identifier,attr"`
	Resources  []imsResource `xml:"resources>resource"`
}
type imsResource struct {
	Identifier string    `xml:"identifier,attr"`
	Type       string    `xml:"type,attr"`
	Href       string    `xml:"href,attr"`
	Files      []imsFile `xml:"file"`
}
type imsFile struct {
	Href string `xml:"href,attr"`
}

// Build a QTI 2.1 single-choice item. correct may be empty.
func buildItemXML(id string, q extract.Question, correct string) string {
	var choices strings.Builder
	for _, o := range q.Options {
		fmt.Fprintf(&choices, `<simpleChoice identifier="%s">%s</simpleChoice>`, o.Letter, escape(o.Text))
	}
	var resp string
	if correct != "" {
		resp = fmt.Sprintf("\n    <correctResponse><value>%s</value></correctResponse>", escape(correct))
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<assessmentItem identifier="%s" title="Question %d" adaptive="false" timeDependent="false" xmlns="http://www.imsglobal.org/xsd/imsqti_v2p1">
  <responseDeclaration identifier="RESPONSE" cardinality="single" baseType="identifier">%s
  </responseDeclaration>
  <itemBody>
    <p>%s</p>
    <choiceInteraction responseIdentifier="RESPONSE" shuffle="false" maxChoices="1">
      %s
    </choiceInteraction>
  </itemBody>
</assessmentItem>`,
		id, q.Number, resp, escape(q.Stem), choices.String(),
	)
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
