package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/recipebook/backend/config"
	"github.com/recipebook/backend/internal/app"
	"github.com/recipebook/backend/internal/auth"
	"github.com/recipebook/backend/internal/logging"
	"github.com/recipebook/backend/internal/models"
	"github.com/recipebook/backend/internal/service"
	"go.uber.org/zap"
)

var seedRecipes = []service.RecipeInput{
	{
		Title:        "Bolo de Cenoura com Cobertura de Chocolate",
		Description:  "O bolo de cenoura fofinho de toda casa brasileira.",
		Ingredients:  "3 cenouras médias\n4 ovos\n1 xícara de óleo\n2 xícaras de açúcar\n2 xícaras de farinha de trigo\n1 colher de sopa de fermento",
		Instructions: "Bata no liquidificador as cenouras, os ovos e o óleo\nMisture o açúcar e a farinha\nAcrescente o fermento\nAsse a 180°C por 40 minutos",
		PrepTime:     20,
		CookTime:     40,
		Servings:     12,
		Difficulty:   models.DifficultyEasy,
		Category:     "Bolos",
	},
	{
		Title:        "Feijoada",
		Description:  "Feijão preto cozido com carnes de porco e defumados.",
		Ingredients:  "1 kg de feijão preto\n500 g de costelinha defumada\n300 g de linguiça calabresa\n200 g de bacon\n2 folhas de louro",
		Instructions: "Deixe o feijão de molho na véspera\nDessalgue as carnes\nCozinhe o feijão com o louro\nRefogue o bacon e a linguiça e junte ao feijão\nCozinhe até engrossar",
		PrepTime:     60,
		CookTime:     180,
		Servings:     10,
		Difficulty:   models.DifficultyHard,
		Category:     "Prato Principal",
	},
	{
		Title:        "Pão de Queijo",
		Description:  "Pãezinhos de polvilho e queijo minas.",
		Ingredients:  "500 g de polvilho azedo\n250 ml de leite\n100 ml de óleo\n2 ovos\n200 g de queijo minas curado ralado",
		Instructions: "Ferva o leite com o óleo\nEscalde o polvilho\nJunte os ovos e o queijo\nModele bolinhas\nAsse a 200°C por 25 minutos",
		PrepTime:     30,
		CookTime:     25,
		Servings:     30,
		Difficulty:   models.DifficultyMedium,
		Category:     "Lanches",
	},
	{
		Title:        "Brigadeiro",
		Description:  "Doce de festa de leite condensado e chocolate.",
		Ingredients:  "1 lata de leite condensado\n1 colher de sopa de manteiga\n3 colheres de sopa de chocolate em pó\nChocolate granulado",
		Instructions: "Leve tudo ao fogo baixo mexendo sempre\nCozinhe até desgrudar do fundo\nDeixe esfriar\nEnrole e passe no granulado",
		PrepTime:     10,
		CookTime:     15,
		Servings:     25,
		Difficulty:   models.DifficultyEasy,
		Category:     "Doces",
	},
	{
		Title:        "Moqueca de Peixe",
		Description:  "Peixe cozido no leite de coco com dendê.",
		Ingredients:  "1 kg de peixe em postas\n1 vidro de leite de coco\n2 colheres de azeite de dendê\n2 tomates\n1 pimentão\n1 cebola\nCoentro a gosto",
		Instructions: "Tempere o peixe com limão e sal\nMonte camadas de cebola, tomate e pimentão na panela\nAcomode o peixe\nRegue com leite de coco e dendê\nCozinhe por 25 minutos e finalize com coentro",
		PrepTime:     30,
		CookTime:     25,
		Servings:     6,
		Difficulty:   models.DifficultyMedium,
		Category:     "Prato Principal",
	},
}

func main() {
	email := flag.String("email", "chef@example.com", "Account that owns the seeded recipes")
	password := flag.String("password", "testpassword123", "Password of the seeding account")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log, err := logging.New(cfg.LogLevel, "console")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to initialize application", zap.Error(err))
	}
	defer a.Close()

	sc := a.Session("recipebook-seed")
	defer sc.Close()
	if err := sc.Start(ctx); err != nil {
		log.Warn("failed to restore stored session", zap.Error(err))
	}

	if sc.Snapshot().User == nil {
		err := sc.SignUp(ctx, *email, *password, "Chef Seed")
		if errors.Is(err, auth.ErrUserAlreadyExists) {
			err = sc.SignIn(ctx, *email, *password)
		}
		if err != nil {
			log.Fatal("failed to sign in seeding account", zap.String("email", *email), zap.Error(err))
		}
	}
	user := sc.Snapshot().User
	log.Info("seeding recipes", zap.String("user_id", user.ID), zap.Int("count", len(seedRecipes)))

	saved := 0
	for _, in := range seedRecipes {
		recipe, err := a.RecipeService.Save(ctx, user.ID, "", in, nil)
		if err != nil {
			log.Error("failed to save recipe", zap.String("title", in.Title), zap.Error(err))
			continue
		}
		saved++
		log.Info("saved recipe", zap.String("id", recipe.ID), zap.String("title", recipe.Title))
	}

	log.Info("recipe seeding finished", zap.Int("saved", saved), zap.Int("failed", len(seedRecipes)-saved))
}
