package main

import (
	"fmt"
	"math/rand"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/alphabot-ai/socialfeed/internal/client"
	"github.com/alphabot-ai/socialfeed/internal/logging"
	"github.com/alphabot-ai/socialfeed/internal/model"
)

var seedUsers = []struct {
	email string
	name  string
}{
	{"ada@example.com", "Ada Lovelace"},
	{"alan@example.com", "Alan Turing"},
	{"grace@example.com", "Grace Hopper"},
	{"edsger@example.com", "Edsger Dijkstra"},
	{"barbara@example.com", "Barbara Liskov"},
}

var seedPosts = []struct {
	cid         string
	title       string
	description string
}{
	{"bafy-notes", "Notes on the Analytical Engine", "The engine weaves algebraic patterns."},
	{"bafy-notes", "Re: Notes on the Analytical Engine", "A reply under the same content id."},
	{"bafy-imitation", "The Imitation Game", "Can machines think?"},
	{"bafy-compiler", "First compiler", "A-0 turns subroutines into programs."},
	{"bafy-goto", "Go To Statement Considered Harmful", "Structured control flow."},
	{"bafy-substitution", "Data Abstraction and Hierarchy", "Subtypes should be substitutable."},
}

const seedPassword = "socialfeed-seed"

var seedOpts struct {
	url   string
	users int
	seed  int64
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate a running server with sample users, posts and likes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logging.Setup("info", "console")
		return runSeed(seedOpts.url, seedOpts.users, seedOpts.seed)
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedOpts.url, "url", "http://localhost:3002", "socialfeed server URL")
	seedCmd.Flags().IntVar(&seedOpts.users, "users", len(seedUsers), "number of sample users (max 5)")
	seedCmd.Flags().Int64Var(&seedOpts.seed, "seed", 1, "random seed for likes")
}

func runSeed(baseURL string, userCount int, seed int64) error {
	if userCount < 1 || userCount > len(seedUsers) {
		return fmt.Errorf("--users must be between 1 and %d", len(seedUsers))
	}
	log.Info().Str("url", baseURL).Msg("seeding")

	type member struct {
		c    *client.Client
		user *model.User
	}
	var members []member
	for _, u := range seedUsers[:userCount] {
		c := client.New(baseURL)
		err := c.Register(client.RegisterInput{Email: u.email, FullName: u.name, Password: seedPassword})
		if err != nil {
			if !client.IsStatus(err, http.StatusBadRequest) {
				return fmt.Errorf("register %s: %w", u.email, err)
			}
			if err := c.Login(u.email, seedPassword); err != nil {
				return fmt.Errorf("login %s: %w", u.email, err)
			}
		}
		me, err := c.Me()
		if err != nil {
			return fmt.Errorf("me %s: %w", u.email, err)
		}
		members = append(members, member{c: c, user: me})
		log.Info().Str("user", u.name).Str("id", me.ID).Msg("user ready")
	}

	var posts []*model.Post
	for i, p := range seedPosts {
		author := members[i%len(members)]
		post, err := author.c.CreatePost(client.PostInput{
			PostCID:     p.cid,
			Title:       p.title,
			Description: p.description,
		})
		if err != nil {
			return fmt.Errorf("create post %q: %w", p.title, err)
		}
		posts = append(posts, post)
		log.Info().Str("title", p.title).Str("author", author.user.FullName).Msg("post created")
	}

	rng := rand.New(rand.NewSource(seed))
	likes := 0
	for _, post := range posts {
		for _, m := range members {
			if rng.Intn(2) == 0 {
				continue
			}
			_, err := m.c.LikePost(post.ID, m.user.ID)
			if err != nil && !client.IsStatus(err, http.StatusBadRequest) {
				return fmt.Errorf("like post %s: %w", post.ID, err)
			}
			if err == nil {
				likes++
			}
		}
	}

	log.Info().Int("users", len(members)).Int("posts", len(posts)).Int("likes", likes).Msg("seeding complete")
	return nil
}
