// Command seed_questions fills a session's question list from the Open
// Trivia Database. The session must already exist.
//
//	go run ./internal/tools/seed_questions -code ABCD -count 10
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/quizdeck/quizdeck/clients/opentdb"
	"github.com/quizdeck/quizdeck/internal/dbconfig"
	"github.com/quizdeck/quizdeck/internal/quiz/question"
	"github.com/quizdeck/quizdeck/internal/quiz/session"
)

func main() {
	code := flag.String("code", "", "session code to seed")
	count := flag.Int("count", 10, "number of questions to fetch")
	category := flag.Int("category", 0, "Open Trivia DB category id (0 = any)")
	difficulty := flag.String("difficulty", "", "easy, medium or hard (empty = any)")
	flag.Parse()

	if *code == "" {
		fmt.Fprintln(os.Stderr, "-code is required")
		os.Exit(1)
	}

	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not load .env file: %v\n", err)
	}

	cfg := dbconfig.NewConfigFromEnv()
	database, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	ctx := context.Background()

	sessions := session.NewRepository(database)
	sess, err := sessions.GetByCode(ctx, *code)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load session %s: %v\n", *code, err)
		os.Exit(1)
	}

	client := opentdb.NewClient()
	fetched, err := client.FetchQuestions(ctx, opentdb.FetchRequest{
		Amount:     *count,
		CategoryID: *category,
		Difficulty: *difficulty,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to fetch questions: %v\n", err)
		os.Exit(1)
	}

	questions := question.NewRepository(database)
	inserted := 0
	for _, q := range fetched {
		if _, err := questions.Create(ctx, question.CreateQuestionRequest{
			SessionCode: sess.Code,
			Text:        q.Text,
			Options:     q.Options,
			Position:    q.Position,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "failed to insert question: %v\n", err)
			os.Exit(1)
		}
		inserted++
	}

	fmt.Printf("seeded %d questions into session %s\n", inserted, sess.Code)
}
