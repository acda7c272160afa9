package model

import (
	"fmt"

	"metaed/internal/dsl"
)

// Source: откуда взялся атрибут: файл, строка (с 1), колонка (с 0) и точный текст.
type Source struct {
	File   string `json:"file,omitempty" yaml:"file,omitempty"`
	Line   int    `json:"line" yaml:"line"`
	Column int    `json:"column" yaml:"column"`
	Text   string `json:"text,omitempty" yaml:"text,omitempty"`
}

// NoSource: атрибут в исходнике явно не задан.
var NoSource = Source{}

func SourceOf(tok dsl.Token) Source {
	return Source{File: tok.File, Line: tok.Line, Column: tok.Column, Text: tok.Text}
}

func (s Source) IsZero() bool { return s.Line == 0 && s.Column == 0 }

func (s Source) String() string {
	if s.IsZero() {
		return "<no source>"
	}
	if s.File == "" {
		return fmt.Sprintf("%d:%d", s.Line, s.Column)
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}

// SourceMap: атрибут -> позиция. Только для диагностики.
type SourceMap map[string]Source

// Get возвращает NoSource для атрибутов, которых не было в исходнике.
func (m SourceMap) Get(attr string) Source {
	if s, ok := m[attr]; ok {
		return s
	}
	return NoSource
}

func (m SourceMap) Set(attr string, tok dsl.Token) {
	m[attr] = SourceOf(tok)
}

// имена атрибутов в SourceMap
const (
	AttrType                    = "type"
	AttrName                    = "name"
	AttrMetaEdID                = "metaEdId"
	AttrDocumentation           = "documentation"
	AttrDeprecated              = "isDeprecated"
	AttrBaseEntityName          = "baseEntityName"
	AttrBaseEntityNamespaceName = "baseEntityNamespaceName"
	AttrReferencedType          = "referencedType"
	AttrReferencedNamespace     = "referencedNamespaceName"
	AttrRoleName                = "roleName"
	AttrShortenTo               = "shortenTo"
)
