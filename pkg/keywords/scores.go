package keywords

import "golang.org/x/text/cases"

// DefaultScore applies to seeds missing from the table
const DefaultScore = 75

var fold = cases.Fold()

// seedScores are fixed popularity scores (0-100) per seed keyword
var seedScores = map[string]int{
	"generator": 85, "creator": 78, "maker": 82, "builder": 75, "constructor": 70,
	"composer": 65, "helper": 88, "assistant": 92, "agent": 80, "advisor": 77,
	"tool": 95, "directory": 60, "top": 90, "best": 85, "list": 75,
	"portal": 55, "finder": 70, "example": 65, "template": 80, "sample": 70,
	"pattern": 68, "resources": 72, "guide": 85, "format": 60, "model": 88,
	"layout": 65, "ideas": 78, "starter": 70, "cataloger": 50, "dashboard": 82,
	"designer": 90, "uploader": 75, "downloader": 78, "scraper": 85, "crawler": 80,
	"syncer": 55, "translator": 88, "converter": 82, "editor": 90, "optimizer": 85,
	"enhancer": 75, "modifier": 70, "processor": 82, "compiler": 78, "analyzer": 85,
	"evaluator": 72, "calculator": 88, "online": 95, "checker": 82, "detector": 78,
	"humanizer": 60, "tester": 75, "planner": 82, "scheduler": 78, "manager": 88,
	"tracker": 85, "sender": 65, "receiver": 68, "responder": 70, "recorder": 75,
	"connector": 72, "viewer": 80, "monitor": 85, "notifier": 75, "verifier": 78,
	"simulator": 82, "comparator": 75, "answer": 90, "hint": 70, "clue": 68,
	"cheat": 75, "solver": 88, "extractor": 82, "summarizer": 85, "transcriber": 78,
	"paraphaser": 70, "writer": 92, "image": 95, "photo": 90, "picture": 88,
	"face": 85, "emoji": 80, "meme": 85, "chart": 82, "graph": 78,
	"style": 88, "filter": 85, "text": 92, "chat": 95, "code": 90,
	"video": 95, "audio": 88, "voice": 85, "sound": 82, "speech": 80,
	"song": 88, "music": 90, "how to": 98, "icon": 78, "logo": 85,
	"avatar": 82, "anime": 88, "portrait": 80, "product photo": 85, "cartoon": 85,
	"tattoo": 82, "character": 88, "coloring page": 75, "action": 85, "figure": 78,
	"diagram": 80, "font": 88, "illustration": 85, "interior design": 82, "upscaler": 78,
}

// ScoreTable looks up seed scores case-insensitively
type ScoreTable struct {
	scores       map[string]int
	defaultScore int
}

// NewScoreTable builds the built-in table with overrides applied on top
func NewScoreTable(overrides map[string]int) *ScoreTable {
	t := &ScoreTable{
		scores:       make(map[string]int, len(seedScores)+len(overrides)),
		defaultScore: DefaultScore,
	}
	for k, v := range seedScores {
		t.scores[fold.String(k)] = v
	}
	for k, v := range overrides {
		t.scores[fold.String(k)] = v
	}
	return t
}

// Score returns the keyword's score, or DefaultScore
func (t *ScoreTable) Score(keyword string) int {
	if s, ok := t.scores[fold.String(keyword)]; ok {
		return s
	}
	return t.defaultScore
}
