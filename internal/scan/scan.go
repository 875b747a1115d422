package scan

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/your-org/fileflow/internal/domain"
)

// Scanner inspects content for known threat signatures.
type Scanner interface {
	Name() string
	Scan(content []byte, filename string) error
}

// ThreatError describes a matched signature. It wraps domain.ErrSecurityThreat.
type ThreatError struct {
	Scanner   string
	Signature string
	Filename  string
}

func (e *ThreatError) Error() string {
	return fmt.Sprintf("%s scanner matched %q in %s", e.Scanner, e.Signature, e.Filename)
}

func (e *ThreatError) Unwrap() error {
	return domain.ErrSecurityThreat
}

// Gate routes each file to exactly one scanner based on its MIME family.
type Gate struct {
	Image    Scanner
	Document Scanner
	Generic  Scanner
}

// NewGate returns a Gate backed by the built-in signature scanners.
func NewGate() *Gate {
	return &Gate{
		Image:    ImageScanner{},
		Document: DocumentScanner{},
		Generic:  GenericScanner{},
	}
}

// Scan runs the scanner that matches mimeType.
func (g *Gate) Scan(ctx context.Context, content []byte, filename, mimeType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return g.scannerFor(mimeType).Scan(content, filename)
}

func (g *Gate) scannerFor(mimeType string) Scanner {
	switch domain.FamilyOf(mimeType) {
	case domain.FamilyImage:
		return g.Image
	case domain.FamilyDocument:
		return g.Document
	default:
		return g.Generic
	}
}

type signature struct {
	name    string
	pattern []byte
	fold    bool
	// edge limits the search to the first and last edgeWindow bytes of
	// binary content. Short patterns occur at random inside compressed data.
	edge bool
}

// edgeWindow covers file headers and appended trailers of polyglot payloads.
const edgeWindow = 1024

func (s signature) match(content []byte, textual bool) bool {
	if s.edge && !textual && len(content) > 2*edgeWindow {
		return s.contains(content[:edgeWindow]) || s.contains(content[len(content)-edgeWindow:])
	}
	return s.contains(content)
}

func (s signature) contains(content []byte) bool {
	if s.fold {
		return bytes.Contains(bytes.ToLower(content), s.pattern)
	}
	return bytes.Contains(content, s.pattern)
}

const eicar = `X5O!P%@AP[4\PZX54(P^)7CC)7}$EICAR-STANDARD-ANTIVIRUS-TEST-FILE!$H+H*`

var (
	eicarSig  = signature{name: "eicar-test-file", pattern: []byte(eicar)}
	phpSig    = signature{name: "php-open-tag", pattern: []byte("<?php"), fold: true}
	scriptSig = signature{name: "script-tag", pattern: []byte("<script"), fold: true}
)

var imageSignatures = []signature{
	eicarSig,
	phpSig,
	scriptSig,
	{name: "php-short-echo", pattern: []byte("<?="), edge: true},
	{name: "eval-call", pattern: []byte("eval("), fold: true},
	{name: "svg-onload", pattern: []byte("onload="), fold: true},
	{name: "javascript-uri", pattern: []byte("javascript:"), fold: true},
}

var documentSignatures = []signature{
	eicarSig,
	phpSig,
	{name: "pdf-javascript", pattern: []byte("/JavaScript")},
	{name: "pdf-js", pattern: []byte("/JS ")},
	{name: "pdf-launch", pattern: []byte("/Launch")},
	{name: "pdf-embedded-file", pattern: []byte("/EmbeddedFile")},
	{name: "office-macro", pattern: []byte("vbaProject.bin")},
}

var genericSignatures = []signature{
	eicarSig,
	phpSig,
}

var executableExtensions = map[string]struct{}{
	".exe": {}, ".dll": {}, ".so": {}, ".bin": {}, ".elf": {}, ".com": {},
}

// textImageExtensions are image formats stored as markup rather than encoded pixels.
var textImageExtensions = map[string]struct{}{
	".svg": {}, ".svgz": {},
}

func isTextImage(filename string) bool {
	_, ok := textImageExtensions[strings.ToLower(filepath.Ext(filename))]
	return ok
}

func matchAny(scanner string, sigs []signature, content []byte, filename string, textual bool) error {
	for _, sig := range sigs {
		if sig.match(content, textual) {
			return &ThreatError{Scanner: scanner, Signature: sig.name, Filename: filename}
		}
	}
	return nil
}

// ImageScanner looks for code smuggled inside image payloads.
type ImageScanner struct{}

func (ImageScanner) Name() string { return "image" }

func (s ImageScanner) Scan(content []byte, filename string) error {
	return matchAny(s.Name(), imageSignatures, content, filename, isTextImage(filename))
}

// DocumentScanner looks for active content in PDFs and office documents.
type DocumentScanner struct{}

func (DocumentScanner) Name() string { return "document" }

func (s DocumentScanner) Scan(content []byte, filename string) error {
	return matchAny(s.Name(), documentSignatures, content, filename, true)
}

// GenericScanner covers everything else, including executables disguised under another extension.
type GenericScanner struct{}

func (GenericScanner) Name() string { return "generic" }

func (s GenericScanner) Scan(content []byte, filename string) error {
	if err := matchAny(s.Name(), genericSignatures, content, filename, true); err != nil {
		return err
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := executableExtensions[ext]; ok {
		return nil
	}
	switch {
	case bytes.HasPrefix(content, []byte("MZ")):
		return &ThreatError{Scanner: s.Name(), Signature: "pe-executable", Filename: filename}
	case bytes.HasPrefix(content, []byte("\x7fELF")):
		return &ThreatError{Scanner: s.Name(), Signature: "elf-executable", Filename: filename}
	}
	return nil
}
