package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/qs3c/resume_go_server/config"
	"github.com/qs3c/resume_go_server/internal/database"
	"github.com/qs3c/resume_go_server/internal/repository"
)

var (
	dryRun        = flag.Bool("dry-run", true, "Dry run mode, don't actually modify data")
	pendingExpire = flag.Int("pending-expire", 24, "Hours before a pending transaction is swept")
	stuckExpire   = flag.Int("stuck-expire", 1, "Hours before a processing job is marked failed")
	sweepPending  = flag.Bool("sweep-pending", true, "Sweep stale pending transactions")
	expireSubs    = flag.Bool("expire-subs", true, "Mark expired subscriptions")
	failStuckJobs = flag.Bool("fail-stuck-jobs", true, "Mark stuck processing jobs as failed")
)

func main() {
	flag.Parse()

	log.Println("Starting cleanup task...")
	log.Printf("Mode: dry-run=%v", *dryRun)

	// 加载配置
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 连接数据库
	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	txRepo := repository.NewTransactionRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	jobRepo := repository.NewJobRepository(db)

	// 1. 关闭超时未支付的订单
	if *sweepPending {
		olderThan := time.Duration(*pendingExpire) * time.Hour
		log.Printf("Sweeping pending transactions older than %d hours...", *pendingExpire)

		if *dryRun {
			stale, err := txRepo.ListStalePending(olderThan)
			if err != nil {
				log.Printf("Failed to list stale transactions: %v", err)
			}
			for _, tx := range stale {
				log.Printf("  - transaction %d (user %d, amount %d, created %s)",
					tx.ID, tx.UserID, tx.FinalAmount, tx.CreatedAt.Format(time.RFC3339))
			}
			log.Printf("Would close %d stale pending transactions", len(stale))
		} else {
			n, err := txRepo.SweepStalePending(olderThan, "支付超时自动关闭")
			if err != nil {
				log.Printf("Failed to sweep pending transactions: %v", err)
			} else {
				log.Printf("Closed %d stale pending transactions", n)
			}
		}
	}

	// 2. 将已到期的套餐批次置为 expired
	// 余额查询本身会按时间过滤，这一步只是让状态列和事实一致
	if *expireSubs {
		log.Println("Marking expired subscriptions...")
		if *dryRun {
			log.Println("  (skipped in dry-run)")
		} else {
			n, err := subRepo.MarkExpired()
			if err != nil {
				log.Printf("Failed to mark expired subscriptions: %v", err)
			} else {
				log.Printf("Marked %d subscriptions expired", n)
			}
		}
	}

	// 3. 清理卡死的任务：worker 崩溃后停留在 processing 的任务
	if *failStuckJobs {
		olderThan := time.Duration(*stuckExpire) * time.Hour
		log.Printf("Checking jobs stuck in processing for over %d hours...", *stuckExpire)

		stuck, err := jobRepo.GetStuckJobs(olderThan)
		if err != nil {
			log.Printf("Failed to list stuck jobs: %v", err)
		}
		for _, job := range stuck {
			log.Printf("  - job %d (user %d, kind %s, started %s)",
				job.ID, job.UserID, job.Kind, job.StartedAt.Format(time.RFC3339))
			if !*dryRun {
				if err := jobRepo.MarkFailed(job.ID, "处理超时"); err != nil {
					log.Printf("    failed to mark job %d: %v", job.ID, err)
				}
			}
		}
		if *dryRun {
			log.Printf("Would fail %d stuck jobs", len(stuck))
		} else {
			log.Printf("Failed %d stuck jobs", len(stuck))
		}
	}

	if *dryRun {
		log.Println("DRY RUN MODE - no data was modified")
		log.Println("Run with -dry-run=false to apply changes")
	} else {
		log.Println("Cleanup completed")
	}
}
