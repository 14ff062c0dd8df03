package attendance

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/actionunitmanager/backend/core"
	"github.com/actionunitmanager/backend/core/class"
	"github.com/actionunitmanager/backend/core/user"
)

// ErrRecordNotFound is returned when no attendance record exists for a
// (membership, date) pair.
var ErrRecordNotFound = errors.New("attendance record not found")

// Report defaults.
const (
	DefaultAbsenceDaysBack     = 30
	DefaultMinAbsences         = 1
	DefaultRiskDaysBack        = 90
	recentAbsenceWindowDays    = 21
	lowAttendanceRateThreshold = 60.0
)

type Repository interface {
	CreateRecord(rec Record) error
	GetRecord(membershipID string, date core.Date) (Record, error)
	UpdateRecord(rec Record) error
	// FilterMemberRecords returns a member's records within the range,
	// most recent first.
	FilterMemberRecords(membershipID string, start, end core.Date) ([]Record, error)
	// FilterClassRecords returns a class's records, optionally bounded by
	// the filter's dates.
	FilterClassRecords(classID string, filter ReportFilter) ([]Record, error)
	CountPresentByClass(classID string, date core.Date) (int, error)
	CountPresentByChurch(churchID string, date core.Date) (int, error)
}

type Service struct {
	repo    Repository
	clsRepo class.Repository
	usrSvc  user.ServiceInterface
}

func NewService(repo Repository, clsRepo class.Repository, usrSvc user.ServiceInterface) *Service {
	return &Service{repo: repo, clsRepo: clsRepo, usrSvc: usrSvc}
}

// BulkMark records attendance for one or more members, overwriting any
// existing record for the same member and date.
func (svc *Service) BulkMark(churchID, markedByID string, marks []Mark) (MarkResult, error) {
	var res MarkResult
	for _, m := range marks {
		if _, err := svc.clsRepo.GetMembershipByID(churchID, m.MembershipID); err != nil {
			return MarkResult{}, err
		}

		rec, err := svc.repo.GetRecord(m.MembershipID, m.Date)
		switch errors.Cause(err) {
		case nil:
			rec.IsPresent = m.IsPresent
			rec.AbsenceReason = m.AbsenceReason
			rec.MarkedByID = markedByID
			rec.MarkedAt = time.Now().UTC()
			if err = svc.repo.UpdateRecord(rec); err != nil {
				return MarkResult{}, errors.Wrap(err, "updating attendance")
			}
			res.Updated++
		case ErrRecordNotFound:
			rec = Record{
				MembershipID:  m.MembershipID,
				Date:          m.Date,
				IsPresent:     m.IsPresent,
				AbsenceReason: m.AbsenceReason,
				MarkedByID:    markedByID,
				MarkedAt:      time.Now().UTC(),
			}
			if err = svc.repo.CreateRecord(rec); err != nil {
				return MarkResult{}, errors.Wrap(err, "creating attendance")
			}
			if rec, err = svc.repo.GetRecord(m.MembershipID, m.Date); err != nil {
				return MarkResult{}, err
			}
			res.Created++
		default:
			return MarkResult{}, err
		}
		res.Records = append(res.Records, rec)
	}

	res.Message = fmt.Sprintf(
		"Successfully processed %d attendance records (%d created, %d updated)",
		len(res.Records), res.Created, res.Updated,
	)
	return res, nil
}

// TodayPresentCount returns how many members of a class were marked present today.
func (svc *Service) TodayPresentCount(classID string) (int, error) {
	return svc.repo.CountPresentByClass(classID, core.Today())
}

// ChurchTodayPresentCount returns today's church-wide present count.
func (svc *Service) ChurchTodayPresentCount(churchID string) (int, error) {
	return svc.repo.CountPresentByChurch(churchID, core.Today())
}

// AbsentMembers reports members with at least minAbsences absences over the
// last daysBack days. classID narrows to one class; otherwise the teacher's
// assigned class is used.
func (svc *Service) AbsentMembers(churchID, teacherID, classID string, daysBack, minAbsences int) ([]AbsentMember, error) {
	if daysBack <= 0 {
		daysBack = DefaultAbsenceDaysBack
	}
	if minAbsences <= 0 {
		minAbsences = DefaultMinAbsences
	}
	end := core.Today()
	start := end.AddDays(-daysBack)

	var classes []class.Class
	if classID != "" {
		cls, err := svc.clsRepo.GetClassByID(churchID, classID)
		if err != nil {
			return nil, err
		}
		classes = []class.Class{cls}
	} else {
		asg, err := svc.clsRepo.GetActiveAssignmentByTeacher(teacherID)
		switch errors.Cause(err) {
		case nil:
			cls, err := svc.clsRepo.GetClassByID(churchID, asg.ClassID)
			if err != nil {
				return nil, err
			}
			classes = []class.Class{cls}
		case class.ErrAssignmentNotFound:
			return []AbsentMember{}, nil
		default:
			return nil, err
		}
	}

	report := []AbsentMember{}
	for _, cls := range classes {
		mbrs, err := svc.clsRepo.FilterMemberships(cls.ID, true /* activeOnly */)
		if err != nil {
			return nil, err
		}
		for _, mbr := range mbrs {
			recs, err := svc.repo.FilterMemberRecords(mbr.ID, start, end)
			if err != nil {
				return nil, err
			}

			var absences []Record
			for _, rec := range recs {
				if !rec.IsPresent {
					absences = append(absences, rec)
				}
			}
			if len(absences) < minAbsences {
				continue
			}

			usr, err := svc.usrSvc.GetByID(mbr.UserID)
			if err != nil {
				return nil, err
			}

			row := AbsentMember{
				UserID:        usr.ID,
				MembershipID:  mbr.ID,
				Name:          usr.Name,
				Phone:         usr.Phone,
				Location:      mbr.Location,
				AbsenceReason: ReasonUnknown,
				AbsenceCount:  len(absences),
				ClassName:     cls.Name,
			}
			if reason := absences[0].AbsenceReason; reason != "" {
				row.AbsenceReason = reason
			}
			for _, rec := range recs { // most recent first
				if rec.IsPresent {
					d := rec.Date
					row.LastAttendance = &d
					break
				}
			}
			report = append(report, row)
		}
	}
	return report, nil
}

// Reports aggregates attendance per class over a date range, with per-reason
// absence tallies.
func (svc *Service) Reports(churchID string, filter ReportFilter) ([]ClassReport, error) {
	var classes []class.Class
	if filter.ClassID != "" {
		cls, err := svc.clsRepo.GetClassByID(churchID, filter.ClassID)
		if err != nil {
			return nil, err
		}
		classes = []class.Class{cls}
	} else {
		var err error
		if classes, err = svc.clsRepo.FilterClasses(churchID, false); err != nil {
			return nil, err
		}
	}

	date := core.Today().String()
	if filter.StartDate != nil {
		date = filter.StartDate.String()
	}

	reports := []ClassReport{}
	for _, cls := range classes {
		recs, err := svc.repo.FilterClassRecords(cls.ID, filter)
		if err != nil {
			return nil, err
		}
		totalMembers, err := svc.clsRepo.CountActiveMembers(cls.ID)
		if err != nil {
			return nil, err
		}

		rep := ClassReport{
			ClassName:     cls.Name,
			TeacherName:   "No Teacher",
			Date:          date,
			TotalMembers:  totalMembers,
			AbsentReasons: map[string]int{},
		}
		for _, rec := range recs {
			if rec.IsPresent {
				rep.PresentCount++
			} else {
				rep.AbsentCount++
				if rec.AbsenceReason != "" {
					rep.AbsentReasons[rec.AbsenceReason]++
				}
			}
		}
		if totalMembers > 0 {
			rep.AttendanceRate = math.Round(float64(rep.PresentCount)/float64(totalMembers)*100*100) / 100
		}

		asg, err := svc.clsRepo.GetActiveAssignmentByClass(cls.ID)
		switch errors.Cause(err) {
		case nil:
			tchr, err := svc.usrSvc.GetByID(asg.TeacherID)
			if err != nil {
				return nil, err
			}
			rep.TeacherName = tchr.Name
		case class.ErrAssignmentNotFound:
		default:
			return nil, err
		}

		reports = append(reports, rep)
	}
	return reports, nil
}

// AtRisk scores every active member of the church on attendance patterns over
// the last daysBack days and returns those with a non-zero score, highest
// first. Scoring: low attendance rate adds 3, two or more absences in the
// last three weeks adds 2, and each absence reason seen twice or more adds 1.
func (svc *Service) AtRisk(churchID string, daysBack int) ([]AtRiskMember, error) {
	if daysBack <= 0 {
		daysBack = DefaultRiskDaysBack
	}
	end := core.Today()
	start := end.AddDays(-daysBack)
	totalDays := daysBack + 1

	mbrs, err := svc.clsRepo.FilterChurchMemberships(churchID, true /* activeOnly */)
	if err != nil {
		return nil, err
	}
	classes, err := svc.clsRepo.FilterClasses(churchID, false)
	if err != nil {
		return nil, err
	}
	classNames := make(map[string]string, len(classes))
	for _, cls := range classes {
		classNames[cls.ID] = cls.Name
	}

	atRisk := []AtRiskMember{}
	for _, mbr := range mbrs {
		recs, err := svc.repo.FilterMemberRecords(mbr.ID, start, end)
		if err != nil {
			return nil, err
		}

		var presentCount int
		var absences []Record
		reasons := map[string]int{}
		for _, rec := range recs {
			if rec.IsPresent {
				presentCount++
				continue
			}
			absences = append(absences, rec)
			if rec.AbsenceReason != "" {
				reasons[rec.AbsenceReason]++
			}
		}
		rate := float64(presentCount) / float64(totalDays) * 100

		var score int
		var factors []string
		if rate < lowAttendanceRateThreshold {
			factors = append(factors, fmt.Sprintf("Low attendance (%.1f%%)", rate))
			score += 3
		}
		recentCutoff := end.AddDays(-recentAbsenceWindowDays)
		var recentAbsences int
		for _, rec := range absences {
			if !rec.Date.Before(recentCutoff) {
				recentAbsences++
			}
		}
		if recentAbsences >= 2 {
			factors = append(factors, fmt.Sprintf("%d recent absences", recentAbsences))
			score += 2
		}
		reasonKeys := make([]string, 0, len(reasons))
		for reason := range reasons {
			reasonKeys = append(reasonKeys, reason)
		}
		sort.Strings(reasonKeys)
		for _, reason := range reasonKeys {
			if reasons[reason] >= 2 {
				factors = append(factors, fmt.Sprintf("Frequent %s", reason))
				score++
			}
		}
		if score == 0 {
			continue
		}

		usr, err := svc.usrSvc.GetByID(mbr.UserID)
		if err != nil {
			return nil, err
		}

		row := AtRiskMember{
			UserID:         usr.ID,
			Name:           usr.Name,
			Phone:          usr.Phone,
			Location:       mbr.Location,
			ClassName:      classNames[mbr.ClassID],
			AttendanceRate: math.Round(rate*10) / 10,
			TotalAbsences:  len(absences),
			RiskScore:      score,
			RiskFactors:    factors,
		}
		for _, rec := range recs { // most recent first
			if rec.IsPresent {
				d := rec.Date
				row.LastAttendance = &d
				days := rec.Date.DaysUntil(end)
				row.DaysSinceLastSeen = &days
				break
			}
		}
		atRisk = append(atRisk, row)
	}

	sort.SliceStable(atRisk, func(i, j int) bool { return atRisk[i].RiskScore > atRisk[j].RiskScore })
	return atRisk, nil
}
