// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package academic

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Attribute codes requested from the evaluate endpoint.
const (
	attrID                   = "Id"
	attrEntityType           = "Ty"
	attrTitle                = "Ti"
	attrPaperType            = "Pt"
	attrYear                 = "Y"
	attrCitationCount        = "CC"
	attrReferenceIDs         = "RId"
	attrAuthorNames          = "AA.DAuN"
	attrAuthorIDs            = "AA.AuId"
	attrAuthorInstitutions   = "AA.DAfN"
	attrConferenceName       = "C.CN"
	attrConferenceID         = "C.CId"
	attrConferenceInstName   = "CI.CIN"
	attrConferenceInstanceID = "CI.CIId"
	attrExtended             = "E"
)

var defaultAttributes = []string{
	attrID, attrEntityType, attrTitle, attrPaperType, attrYear,
	attrCitationCount, attrReferenceIDs, attrAuthorNames, attrAuthorIDs,
	attrAuthorInstitutions, attrConferenceName, attrConferenceID,
	attrConferenceInstName, attrConferenceInstanceID, attrExtended,
}

// entityPaper is the Ty value the evaluate endpoint uses for papers.
const entityPaper = 0

// getPapersRule names the interpretation rule whose output is an
// evaluate expression.
const getPapersRule = "#GetPapers"

// Entity is one raw evaluate result.
type Entity struct {
	ID            int64       `json:"Id"`
	EntityType    int         `json:"Ty"`
	Title         string      `json:"Ti"`
	PaperType     looseString `json:"Pt"`
	Year          int         `json:"Y"`
	CitationCount int         `json:"CC"`
	ReferenceIDs  []int64     `json:"RId"`
	Authors       []Author    `json:"AA"`
	Conference    *Conference `json:"C,omitempty"`
	Instance      *Instance   `json:"CI,omitempty"`
	Extended      string      `json:"E,omitempty"`
}

// Author is one entry of an entity's AA list.
type Author struct {
	ID          int64  `json:"AuId"`
	Name        string `json:"DAuN"`
	Institution string `json:"DAfN,omitempty"`
}

// Conference is an entity's C attribute.
type Conference struct {
	ID   int64  `json:"CId"`
	Name string `json:"CN"`
}

// Instance is an entity's CI attribute.
type Instance struct {
	ID   int64  `json:"CIId"`
	Name string `json:"CIN"`
}

// extended is the JSON document carried as a string in the E attribute.
type extended struct {
	DOI     string           `json:"DOI"`
	Sources []extendedSource `json:"S"`
}

type extendedSource struct {
	Type int    `json:"Ty"`
	URL  string `json:"U"`
}

type interpretResponse struct {
	Query           string           `json:"query"`
	Interpretations []interpretation `json:"interpretations"`
}

type interpretation struct {
	LogProb float64 `json:"logprob"`
	Rules   []rule  `json:"rules"`
}

type rule struct {
	Name   string `json:"name"`
	Output struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"output"`
}

type evaluateResponse struct {
	Expr     string   `json:"expr"`
	Entities []Entity `json:"entities"`
}

// looseString accepts either a JSON string or a JSON number.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = looseString(n.String())
	return nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
