package getd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/carusyte/stockpred/conf"
	"github.com/carusyte/stockpred/model"
	"github.com/carusyte/stockpred/util"
	"github.com/mmcdole/gofeed"
	"github.com/pkg/errors"
)

//HeadlineColumns is the layout of scraped headline files.
var HeadlineColumns = []string{model.ColTitle, model.ColLink, model.ColPublished, model.ColSource, model.ColScrapedOn}

//ScrapeFeeds collects headlines from the given RSS/Atom feeds. A feed that
//fails to download or parse is logged and skipped.
func ScrapeFeeds(ctx context.Context, feeds []string) (f *model.Frame, e error) {
	nc := conf.Args.News
	client, e := util.NewClient(time.Duration(nc.FeedTimeout) * time.Second)
	if e != nil {
		return nil, e
	}
	headers := map[string]string{"User-Agent": nc.UserAgent}
	today := util.Today()
	f = model.NewFrame(HeadlineColumns...)
	parser := gofeed.NewParser()
	for i, feed := range feeds {
		if i > 0 && nc.FeedInterval > 0 {
			select {
			case <-time.After(time.Duration(nc.FeedInterval) * time.Second):
			case <-ctx.Done():
				return f, errors.WithStack(ctx.Err())
			}
		}
		log.Printf("fetching feed %s", feed)
		body, err := util.HTTPGetWith(ctx, client, feed, headers, 1)
		if err != nil {
			log.Warnf("failed to fetch feed %s: %+v", feed, err)
			continue
		}
		parsed, err := parser.ParseString(string(body))
		if err != nil {
			log.Warnf("failed to parse feed %s: %+v", feed, err)
			continue
		}
		for _, it := range parsed.Items {
			f.Append(strings.TrimSpace(it.Title), strings.TrimSpace(it.Link), publishedDate(it, today), feed, today)
		}
		log.Printf("%d entries from %s", len(parsed.Items), feed)
	}
	return f, nil
}

//publishedDate reduces the entry's publish time to a UTC date, defaulting to today.
func publishedDate(it *gofeed.Item, today string) string {
	if it.PublishedParsed != nil {
		return it.PublishedParsed.UTC().Format(util.DateFormat)
	}
	if d := util.DatePart(it.Published); d != "" {
		return d
	}
	return today
}

//NewsRawDir holds headline snapshots, the master headline file and its update log.
func NewsRawDir() string {
	return conf.Args.Path("news", "raw")
}

//MasterHeadlinePath is the accumulated headline file.
func MasterHeadlinePath() string {
	return filepath.Join(NewsRawDir(), conf.Args.News.OutputFilename)
}

//SaveSnapshot writes today's scraped headlines to a dated snapshot file.
func SaveSnapshot(f *model.Frame) (path string, e error) {
	path = filepath.Join(NewsRawDir(), fmt.Sprintf("scraped_news_%s.csv", util.Today()))
	return path, f.WriteCSV(path)
}

//MergeHeadlines appends rows to the master headline file, dropping repeated
//(title, link, published) entries in favour of the earliest, and records the
//update in update_log.txt.
func MergeHeadlines(master string, rows *model.Frame) (merged *model.Frame, e error) {
	merged = rows
	exists, e := util.FileExists(master)
	if e != nil {
		return nil, e
	}
	if exists {
		old, e := model.ReadCSV(master)
		if e != nil {
			return nil, e
		}
		merged = old.Concat(rows)
	}
	merged = merged.Dedup(false, model.ColTitle, model.ColLink, model.ColPublished)
	if e = merged.WriteCSV(master); e != nil {
		return nil, e
	}
	logPath := filepath.Join(filepath.Dir(master), "update_log.txt")
	if e = util.AppendLine(logPath, fmt.Sprintf("Updated on %s | Rows: %d",
		time.Now().Format(time.RFC3339), merged.Len())); e != nil {
		log.Warnf("failed to write update log: %+v", e)
	}
	log.Printf("master headline file %s now holds %d rows", master, merged.Len())
	return merged, nil
}
