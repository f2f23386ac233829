package player

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/meta"
)

// Metadata holds song information.
type Metadata struct {
	Title  string
	Artist string
	Album  string
}

// ReadMetadata reads tags (ID3v2 for MP3, Vorbis comments for FLAC and
// Ogg), falling back to the file name when no title is found.
func ReadMetadata(path string) Metadata {
	var m Metadata
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		m = readID3(path)
	case ".flac":
		m = readFLACComments(path)
	case ".ogg":
		m = readOggComments(path)
	}
	if m.Title != "" {
		return m
	}

	base := filepath.Base(path)
	m.Title = strings.TrimSuffix(base, filepath.Ext(base))
	return m
}

func readID3(path string) Metadata {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return Metadata{}
	}
	defer tag.Close()
	return Metadata{
		Title:  strings.TrimSpace(tag.Title()),
		Artist: strings.TrimSpace(tag.Artist()),
		Album:  strings.TrimSpace(tag.Album()),
	}
}

func readFLACComments(path string) Metadata {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return Metadata{}
	}
	defer stream.Close()

	var m Metadata
	for _, block := range stream.Blocks {
		vc, ok := block.Body.(*meta.VorbisComment)
		if !ok {
			continue
		}
		for _, tag := range vc.Tags {
			m.set(tag[0], tag[1])
		}
	}
	return m
}

func readOggComments(path string) Metadata {
	f, err := os.Open(path)
	if err != nil {
		return Metadata{}
	}
	defer f.Close()

	header, err := oggvorbis.GetCommentHeader(f)
	if err != nil {
		return Metadata{}
	}
	var m Metadata
	for _, c := range header.Comments {
		if key, value, ok := strings.Cut(c, "="); ok {
			m.set(key, value)
		}
	}
	return m
}

// set applies a Vorbis comment field. Field names are case-insensitive and
// the first occurrence wins.
func (m *Metadata) set(key, value string) {
	value = strings.TrimSpace(value)
	var dst *string
	switch strings.ToUpper(key) {
	case "TITLE":
		dst = &m.Title
	case "ARTIST":
		dst = &m.Artist
	case "ALBUM":
		dst = &m.Album
	default:
		return
	}
	if *dst == "" {
		*dst = value
	}
}
