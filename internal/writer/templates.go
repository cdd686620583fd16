package writer

import (
	"fmt"
	"strings"
	"text/template"
)

// Markup selects the annotation file format written in evid mode.
type Markup string

// Supported markups.
const (
	MarkupTypst Markup = "typst"
	MarkupLaTeX Markup = "latex"
)

// ParseMarkup validates a markup name.
func ParseMarkup(raw string) (Markup, error) {
	switch m := Markup(strings.ToLower(strings.TrimSpace(raw))); m {
	case MarkupTypst, MarkupLaTeX:
		return m, nil
	case "":
		return MarkupTypst, nil
	default:
		return "", fmt.Errorf("unknown markup %q (valid: typst, latex)", raw)
	}
}

// Filename is the annotation file name inside an evid directory.
func (m Markup) Filename() string {
	if m == MarkupLaTeX {
		return "label.tex"
	}
	return "label.typ"
}

// escape returns the body escaper for m.
func (m Markup) escape(s string) string {
	if m == MarkupLaTeX {
		return EscapeLaTeX(s)
	}
	return EscapeTypst(s)
}

type templateData struct {
	Meta   Metadata
	SafeID string
	Body   string
}

var typstTemplate = template.Must(template.New("label.typ").Funcs(template.FuncMap{
	"str":  typstString,
	"mark": EscapeTypst,
	"tags": func(tags []string) string {
		quoted := make([]string, len(tags))
		for i, t := range tags {
			quoted[i] = typstString(t)
		}
		return "(" + strings.Join(quoted, ", ") + ",)"
	},
}).Parse(`#let info = (
  authors: {{str .Meta.Authors}},
  dates: {{str .Meta.Dates}},
  label: {{str .Meta.Label}},
  original_name: {{str .Meta.OriginalName}},
  tags: {{tags .Meta.Tags}},
  time_added: {{str .Meta.TimeAdded}},
  title: {{str .Meta.Title}},
  url: {{str .Meta.URL}},
  uuid: {{str .Meta.UUID}},
)

#set document(title: info.title, date: none)
#set par(justify: true)

= #info.title

#info.label #h(1fr) #info.dates

== {{mark .SafeID}}

{{.Body}}
`))

// The LaTeX preamble writes every \lb label to a CSV next to the PDF.
var latexTemplate = template.Must(template.New("label.tex").Delims("<<", ">>").Funcs(template.FuncMap{
	"tex": EscapeLaTeX,
}).Parse(`\documentclass[parskip=full]{article}
\nonstopmode

%% HEADER
\usepackage{xargs}
\usepackage{xcolor}
\usepackage{hyperref}
\hypersetup{
  colorlinks=true,
  linkcolor=blue,
  anchorcolor=blue,
  filecolor=magenta,
  urlcolor=cyan,
}
\usepackage{todonotes}
\usepackage{etoolbox}
\makeatletter
\pretocmd{\@startsection}{\gdef\thesectiontype{#1}}{}{}
\pretocmd{\@sect}{\@namedef{the\thesectiontype title}{#8}}{}{}
\pretocmd{\@ssect}{\@namedef{the\thesectiontype title}{#5}}{}{}
\makeatother

\newwrite\textfile
\immediate\openout\textfile=\jobname.csv
\immediate\write\textfile{label ; quote ; note ; section title ; section no ; page ; date ; opage}

\newcommandx{\lb}[3]{\immediate\write\textfile{#1 \space; #2 \space; #3 \space; \thesectiontitle \space;  \thesection  \space;  \thepage  \space;  \pdate \space; \thesubsectiontitle}%
  \csdef{#1}{#2}%
  \hypertarget{#1}{\textcolor{blue}{#2}}\todo[color=blue!10!white,caption={\small#1; #3; #2}]{#1: #3}%
}

\newcommandx{\cc}[1]{
  \hyperlink{#1}{\csuse{#1}}
}

\newcommand{\sdate}[1]{%
  \def\localdate{#1}%
}

\newcommand{\pdate}{%
  \localdate%
}

\usepackage{scrextend}
%% HEADER

\title{<<tex .Meta.Title>>}
\date{<<tex .Meta.Dates>>}

\begin{document}
\maketitle

\tableofcontents
\listoftodos[Labels]

\sdate{<<tex .Meta.Dates>>}

\section{<<tex .SafeID>>}
\subsection{0}

<<.Body>>

\end{document}
`))

func (m Markup) template() *template.Template {
	if m == MarkupLaTeX {
		return latexTemplate
	}
	return typstTemplate
}
