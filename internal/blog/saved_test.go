package blog

import (
	"net/http"
	"sync"
	"testing"

	"github.com/nao1215/blog/internal/blog/store"
)

// savedOf はユーザーの保存済み集合を直接取得するヘルパー関数。
func savedOf(t *testing.T, st *store.Store, userID string) store.SavedSet {
	t.Helper()
	user, err := st.GetUser(t.Context(), userID)
	if err != nil {
		t.Fatalf("ユーザーの取得に失敗: %v", err)
	}
	return user.Saved
}

// count はidが集合に含まれる個数を返す。
func count(saved store.SavedSet, id string) int {
	n := 0
	for _, v := range saved {
		if v == id {
			n++
		}
	}
	return n
}

// TestHandleSave は投稿の保存を検証する。
func TestHandleSave(t *testing.T) {
	t.Parallel()

	t.Run("同じ投稿を2回保存しても1件だけ保存されること", func(t *testing.T) {
		t.Parallel()

		s, st := setupTestServer(t)
		seedUser(t, st, "user-1", "Alice")
		token := tokenFor(t, "user-1", "Alice")
		id := createPost(t, s, token, "t", "c")

		for range 2 {
			w := doRequest(s, http.MethodPost, "/api/v1/blog/save", token, map[string]string{"id": id})
			assertStatus(t, w, http.StatusOK)
			if msg := parseJSON(t, w)["message"]; msg != "Post saved successfully" {
				t.Errorf("message = %v", msg)
			}
		}

		if saved := savedOf(t, st, "user-1"); len(saved) != 1 || count(saved, id) != 1 {
			t.Errorf("保存済み = %v, want [%s]", saved, id)
		}
	})

	t.Run("存在しない投稿IDも保存できること", func(t *testing.T) {
		t.Parallel()

		s, st := setupTestServer(t)
		seedUser(t, st, "user-1", "Alice")

		w := doRequest(s, http.MethodPost, "/api/v1/blog/save", tokenFor(t, "user-1", "Alice"), map[string]string{"id": "ghost"})
		assertStatus(t, w, http.StatusOK)
		if saved := savedOf(t, st, "user-1"); !saved.Contains("ghost") {
			t.Errorf("保存済み = %v", saved)
		}
	})

	t.Run("ユーザーが存在しない場合は404になること", func(t *testing.T) {
		t.Parallel()

		s, _ := setupTestServer(t)

		w := doRequest(s, http.MethodPost, "/api/v1/blog/save", tokenFor(t, "ghost", "Ghost"), map[string]string{"id": "p1"})
		assertStatus(t, w, http.StatusNotFound)
		if got := parseJSON(t, w)["error"]; got != "User not found" {
			t.Errorf("error = %v, want %q", got, "User not found")
		}
	})

	t.Run("IDのないボディは500になること", func(t *testing.T) {
		t.Parallel()

		s, st := setupTestServer(t)
		seedUser(t, st, "user-1", "Alice")

		w := doRequest(s, http.MethodPost, "/api/v1/blog/save", tokenFor(t, "user-1", "Alice"), `{}`)
		assertStatus(t, w, http.StatusInternalServerError)
	})
}

// TestHandleUnsave は投稿の保存解除を検証する。
func TestHandleUnsave(t *testing.T) {
	t.Parallel()

	t.Run("保存済みの投稿だけが取り除かれること", func(t *testing.T) {
		t.Parallel()

		s, st := setupTestServer(t)
		seedUser(t, st, "user-1", "Alice")
		if err := st.SetSaved(t.Context(), "user-1", store.SavedSet{"p1", "p2"}); err != nil {
			t.Fatalf("保存済み集合の設定に失敗: %v", err)
		}

		w := doRequest(s, http.MethodPost, "/api/v1/blog/unsave", tokenFor(t, "user-1", "Alice"), map[string]string{"id": "p1"})
		assertStatus(t, w, http.StatusOK)
		if msg := parseJSON(t, w)["message"]; msg != "Post unsaved successfully" {
			t.Errorf("message = %v", msg)
		}

		if saved := savedOf(t, st, "user-1"); len(saved) != 1 || !saved.Contains("p2") {
			t.Errorf("保存済み = %v, want [p2]", saved)
		}
	})

	t.Run("保存されていない投稿の解除は何もせず200になること", func(t *testing.T) {
		t.Parallel()

		s, st := setupTestServer(t)
		seedUser(t, st, "user-1", "Alice")
		if err := st.SetSaved(t.Context(), "user-1", store.SavedSet{"p1"}); err != nil {
			t.Fatalf("保存済み集合の設定に失敗: %v", err)
		}
		statements := countStatements(t, s.db)

		w := doRequest(s, http.MethodPost, "/api/v1/blog/unsave", tokenFor(t, "user-1", "Alice"), map[string]string{"id": "p9"})
		assertStatus(t, w, http.StatusOK)

		if saved := savedOf(t, st, "user-1"); len(saved) != 1 || !saved.Contains("p1") {
			t.Errorf("保存済み = %v, want [p1]", saved)
		}
		// ユーザーの読み取りと savedOf の読み取りのみ
		if got := statements.Load(); got != 2 {
			t.Errorf("SQLの発行回数 = %d, want 2", got)
		}
	})

	t.Run("IDのないボディは何もせず200になること", func(t *testing.T) {
		t.Parallel()

		s, st := setupTestServer(t)
		seedUser(t, st, "user-1", "Alice")
		if err := st.SetSaved(t.Context(), "user-1", store.SavedSet{"p1"}); err != nil {
			t.Fatalf("保存済み集合の設定に失敗: %v", err)
		}

		w := doRequest(s, http.MethodPost, "/api/v1/blog/unsave", tokenFor(t, "user-1", "Alice"), `{}`)
		assertStatus(t, w, http.StatusOK)
		if msg := parseJSON(t, w)["message"]; msg != "Post unsaved successfully" {
			t.Errorf("message = %v", msg)
		}
		if saved := savedOf(t, st, "user-1"); len(saved) != 1 || !saved.Contains("p1") {
			t.Errorf("保存済み = %v, want [p1]", saved)
		}
	})

	t.Run("ユーザーが存在しない場合は404になること", func(t *testing.T) {
		t.Parallel()

		s, _ := setupTestServer(t)

		w := doRequest(s, http.MethodPost, "/api/v1/blog/unsave", tokenFor(t, "ghost", "Ghost"), map[string]string{"id": "p1"})
		assertStatus(t, w, http.StatusNotFound)
	})
}

// TestHandleSaved は保存済み投稿一覧を検証する。
func TestHandleSaved(t *testing.T) {
	t.Parallel()

	t.Run("リクエストのID一覧の投稿が公開状態に関係なく返ること", func(t *testing.T) {
		t.Parallel()

		s, st := setupTestServer(t)
		seedUser(t, st, "user-1", "Alice")
		token := tokenFor(t, "user-1", "Alice")
		draft := createPost(t, s, token, "draft", "c")
		published := createPost(t, s, token, "published", "c")
		publish(t, s, token, published)
		createPost(t, s, token, "other", "c")

		w := doRequest(s, http.MethodPost, "/api/v1/blog/saved", token, map[string][]string{
			"saved": {draft, published, "missing"},
		})
		assertStatus(t, w, http.StatusOK)

		posts := listOf(t, parseJSON(t, w), "response")
		if len(posts) != 2 {
			t.Fatalf("件数 = %d, want 2", len(posts))
		}
		for _, post := range posts {
			author, _ := post["author"].(map[string]any)
			if author["id"] != "user-1" || author["name"] != "Alice" {
				t.Errorf("著者 = %v", author)
			}
			if _, ok := author["about"]; ok {
				t.Error("保存済み一覧の著者にaboutが含まれている")
			}
		}
	})

	t.Run("空のID一覧では空配列が返ること", func(t *testing.T) {
		t.Parallel()

		s, st := setupTestServer(t)
		seedUser(t, st, "user-1", "Alice")

		w := doRequest(s, http.MethodPost, "/api/v1/blog/saved", tokenFor(t, "user-1", "Alice"), map[string][]string{"saved": {}})
		assertStatus(t, w, http.StatusOK)
		if posts := listOf(t, parseJSON(t, w), "response"); len(posts) != 0 {
			t.Errorf("件数 = %d, want 0", len(posts))
		}
	})

	t.Run("GETでは保存済み集合の投稿が返ること", func(t *testing.T) {
		t.Parallel()

		s, st := setupTestServer(t)
		seedUser(t, st, "user-1", "Alice")
		token := tokenFor(t, "user-1", "Alice")
		saved := createPost(t, s, token, "saved", "c")
		createPost(t, s, token, "not saved", "c")

		w := doRequest(s, http.MethodPost, "/api/v1/blog/save", token, map[string]string{"id": saved})
		assertStatus(t, w, http.StatusOK)

		w = doRequest(s, http.MethodGet, "/api/v1/blog/saved", token, nil)
		assertStatus(t, w, http.StatusOK)
		posts := listOf(t, parseJSON(t, w), "response")
		if len(posts) != 1 || posts[0]["id"] != saved {
			t.Errorf("保存済み一覧 = %v, want only %s", posts, saved)
		}
	})

	t.Run("GETでユーザーが存在しない場合は404になること", func(t *testing.T) {
		t.Parallel()

		s, _ := setupTestServer(t)

		w := doRequest(s, http.MethodGet, "/api/v1/blog/saved", tokenFor(t, "ghost", "Ghost"), nil)
		assertStatus(t, w, http.StatusNotFound)
	})
}

// TestSaveUnsaveConcurrently は同一ユーザーへの保存と解除を同時に行った場合を検証する。
// 読み取りと書き込みは排他されないため最終的な状態は決まらないが、
// 重複して保存されることはない。
func TestSaveUnsaveConcurrently(t *testing.T) {
	t.Parallel()

	s, st := setupTestServer(t)
	seedUser(t, st, "user-1", "Alice")
	token := tokenFor(t, "user-1", "Alice")

	const workers = 20
	var wg sync.WaitGroup
	codes := make([]int, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			path := "/api/v1/blog/save"
			if i%2 == 1 {
				path = "/api/v1/blog/unsave"
			}
			codes[i] = doRequest(s, http.MethodPost, path, token, map[string]string{"id": "p1"}).Code
		}()
	}
	wg.Wait()

	for i, code := range codes {
		if code != http.StatusOK {
			t.Errorf("リクエスト%d: ステータスコード: got %d, want %d", i, code, http.StatusOK)
		}
	}
	if n := count(savedOf(t, st, "user-1"), "p1"); n > 1 {
		t.Errorf("p1が%d件保存されている", n)
	}
}
