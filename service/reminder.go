package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ShareSource 提供待提醒的欠款
type ShareSource interface {
	UnpaidShares(ctx context.Context) ([]ShareReminder, error)
}

// ReminderSender 发送单条提醒
type ReminderSender interface {
	SendShareReminder(r ShareReminder) error
}

// ReminderJob 向进行中群组里未付款的成员发送提醒邮件
type ReminderJob struct {
	source  ShareSource
	sender  ReminderSender
	log     *logrus.Logger
	timeout time.Duration
}

// NewReminderJob 创建提醒任务
func NewReminderJob(source ShareSource, sender ReminderSender, log *logrus.Logger) *ReminderJob {
	return &ReminderJob{source: source, sender: sender, log: log, timeout: 5 * time.Minute}
}

// Run 执行一轮提醒；单个收件人失败只记录日志，不影响其余收件人
func (j *ReminderJob) Run(ctx context.Context) (sent int, err error) {
	reminders, err := j.source.UnpaidShares(ctx)
	if err != nil {
		return 0, fmt.Errorf("load unpaid shares: %w", err)
	}

	for _, r := range reminders {
		entry := j.log.WithFields(logrus.Fields{
			"group_id":  r.Group.ID,
			"member_id": r.Member.ID,
			"user":      r.Debtor.Username,
		})
		if r.Debtor.Email == "" {
			entry.Debug("skip reminder, no email address")
			continue
		}
		if err := j.sender.SendShareReminder(r); err != nil {
			entry.WithError(err).Warn("share reminder failed")
			continue
		}
		sent++
	}

	j.log.WithFields(logrus.Fields{
		"pending":     len(reminders),
		"sent":        sent,
		"outstanding": OutstandingTotal(reminders).StringFixed(2),
	}).Info("share reminders processed")
	return sent, nil
}

// Schedule 按 cron 表达式注册任务并启动调度器，调用方负责 Stop
func (j *ReminderJob) Schedule(spec string) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
		defer cancel()
		if _, err := j.Run(ctx); err != nil {
			j.log.WithError(err).Error("share reminder job failed")
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", spec, err)
	}
	c.Start()
	j.log.WithField("schedule", spec).Info("share reminder job scheduled")
	return c, nil
}
