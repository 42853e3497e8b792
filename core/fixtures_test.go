package core

import (
	"fmt"
	"testing"
	"time"
)

var (
	firstPostDate  = time.Date(2016, time.January, 10, 0, 0, 0, 0, time.UTC)
	secondPostDate = time.Date(2016, time.February, 2, 0, 0, 0, 0, time.UTC)
)

// blogFixture is the canonical test topology: posts joined to an author
// (1:1), and to tags through a link table (N:M).
type blogFixture struct {
	posts   *fakeAdapter
	authors *fakeAdapter
	links   *fakeAdapter
	tags    *fakeAdapter
	model   *Model
}

func blogView(rs *ResolvedSet) (map[string]any, error) {
	post := rs.One("post")
	view := map[string]any{
		"title":   post["title"],
		"content": post["content"],
		"date":    map[string]any{"created": post["created"]},
	}
	if rs.Has("author") {
		view["author"] = map[string]any{"username": rs.One("author")["username"]}
	}
	if rs.Has("tag") {
		titles := make([]string, 0)
		for _, tag := range rs.Many("tag") {
			title, _ := tag["title"].(string)
			titles = append(titles, title)
		}
		view["tags"] = titles
	}
	return view, nil
}

func blogDefaultQuery() *Query {
	return NewQuery().
		Input(func(args ...any) (Record, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("expected one id argument, got %d", len(args))
			}
			return Record{"id": args[0]}, nil
		}).
		ExtractID(func(rs *ResolvedSet) (any, error) {
			return rs.One("post")["id"], nil
		}).
		Populate("post", func(rs *ResolvedSet) (Match, error) {
			return MatchOne(MatchSpec{"id": rs.Input()["id"]}), nil
		}).
		Populate("author", func(rs *ResolvedSet) (Match, error) {
			return MatchOne(MatchSpec{"id": rs.One("post")["author"]}), nil
		}).
		Populate("postTag", func(rs *ResolvedSet) (Match, error) {
			return MatchOne(MatchSpec{"post": rs.One("post")["id"]}), nil
		}).
		Populate("tag", func(rs *ResolvedSet) (Match, error) {
			specs := make([]MatchSpec, 0)
			for _, link := range rs.Many("postTag") {
				specs = append(specs, MatchSpec{"id": link["tag"]})
			}
			return MatchEach(specs...), nil
		})
}

func blogListQuery() *Query {
	return NewMultiQuery().
		Populate("posts", func(rs *ResolvedSet) (Match, error) {
			return MatchOne(MatchSpec{}), nil
		}).
		Populate("postTag", func(rs *ResolvedSet) (Match, error) {
			groups := make([][]MatchSpec, 0)
			for _, post := range rs.Many("posts") {
				groups = append(groups, []MatchSpec{{"post": post["id"]}})
			}
			return MatchGroups(groups...), nil
		}).
		Populate("tag", func(rs *ResolvedSet) (Match, error) {
			groups := make([][]MatchSpec, 0)
			for _, links := range rs.Groups("postTag") {
				specs := make([]MatchSpec, 0)
				for _, link := range links {
					specs = append(specs, MatchSpec{"id": link["tag"]})
				}
				groups = append(groups, specs)
			}
			return MatchGroups(groups...), nil
		}).
		MapRows(func(rs *ResolvedSet) ([]*ResolvedSet, error) {
			posts := rs.Many("posts")
			linkGroups := rs.Groups("postTag")
			tagGroups := rs.Groups("tag")
			rows := make([]*ResolvedSet, 0, len(posts))
			for i, post := range posts {
				row := NewResolvedSet(rs.Input()).
					SetOne("post", post).
					SetMany("postTag", linkGroups[i]).
					SetMany("tag", tagGroups[i])
				rows = append(rows, row)
			}
			return rows, nil
		})
}

func newBlogFixture(t *testing.T) *blogFixture {
	t.Helper()

	f := &blogFixture{
		posts: newFakeAdapter(
			Record{"id": 1, "title": "Post 1", "content": "This is the first post", "created": firstPostDate, "author": 1},
			Record{"id": 2, "title": "Post 2", "content": "This is the second post", "created": secondPostDate, "author": 2},
		),
		authors: newFakeAdapter(
			Record{"id": 1, "username": "jdoe"},
			Record{"id": 2, "username": "twaits"},
		),
		links: newFakeAdapter(
			Record{"id": 11, "post": 1, "tag": 1},
			Record{"id": 12, "post": 1, "tag": 2},
			Record{"id": 13, "post": 2, "tag": 3},
		),
		tags: newFakeAdapter(
			Record{"id": 1, "title": "Sevr"},
			Record{"id": 2, "title": "MongoDB"},
			Record{"id": 3, "title": "React"},
		),
	}

	model, err := NewModel().
		AddBoundSource("post", f.posts).
		AddSource("author", f.authors).
		AddBoundManySource("postTag", f.links).
		AddManySource("tag", f.tags).
		AddManySource("posts", f.posts).
		Map(blogView).
		AddQuery(DefaultQuery, blogDefaultQuery()).
		AddQuery("all", blogListQuery()).
		AddMutation("updateAuthor", func(rs *ResolvedSet, args ...any) ([]WriteInstruction, error) {
			return []WriteInstruction{{Source: "post", Data: Record{"author": args[0]}}}, nil
		}).
		AddMutation("updateTitle", func(rs *ResolvedSet, args ...any) ([]WriteInstruction, error) {
			return []WriteInstruction{{Source: "post", Data: Record{"title": args[0]}}}, nil
		}).
		AddMutation("updateContent", func(rs *ResolvedSet, args ...any) ([]WriteInstruction, error) {
			return []WriteInstruction{{Source: "post", Data: Record{"content": args[0]}}}, nil
		}).
		AddMutation("pushTag", func(rs *ResolvedSet, args ...any) ([]WriteInstruction, error) {
			return []WriteInstruction{{
				Source: "postTag",
				Op:     OpCreate,
				Data:   Record{"post": rs.One("post")["id"], "tag": args[0]},
			}}, nil
		}).
		AddMutation("removeTag", func(rs *ResolvedSet, args ...any) ([]WriteInstruction, error) {
			return []WriteInstruction{{
				Source: "postTag",
				Op:     OpDelete,
				Data:   Record{"post": rs.One("post")["id"], "tag": args[0]},
			}}, nil
		}).
		AddMutation("renameAndTag", func(rs *ResolvedSet, args ...any) ([]WriteInstruction, error) {
			return []WriteInstruction{
				{Source: "post", Data: Record{"title": args[0]}},
				{Source: "postTag", Op: OpCreate, Data: Record{"post": rs.One("post")["id"], "tag": args[1]}},
			}, nil
		}).
		AddInitializer("post", func(data Record, created *ResolvedSet) (Record, error) {
			return Record{
				"title":   data["title"],
				"content": data["content"],
				"created": data["created"],
				"author":  data["author"],
			}, nil
		}).
		AddInitializer("postTag", func(data Record, created *ResolvedSet) (Record, error) {
			return Record{
				"post": created.One("post")["id"],
				"tag":  data["tag"],
			}, nil
		}).
		Build()
	if err != nil {
		t.Fatalf("building blog model: %v", err)
	}
	f.model = model
	return f
}

// newSinglePostModel builds the smallest useful model: one source, the
// default query, the shared view.
func newSinglePostModel(t *testing.T, posts *fakeAdapter) *Model {
	t.Helper()

	q := NewQuery().
		Input(func(args ...any) (Record, error) {
			return Record{"id": args[0]}, nil
		}).
		ExtractID(func(rs *ResolvedSet) (any, error) {
			return rs.One("post")["id"], nil
		}).
		Populate("post", func(rs *ResolvedSet) (Match, error) {
			return MatchOne(MatchSpec{"id": rs.Input()["id"]}), nil
		})

	model, err := NewModel().
		AddBoundSource("post", posts).
		Map(blogView).
		AddQuery(DefaultQuery, q).
		Build()
	if err != nil {
		t.Fatalf("building single-source model: %v", err)
	}
	return model
}
