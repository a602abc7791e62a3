package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrCapacityExceeded 导师带教名额已满，无法再接收学员
var ErrCapacityExceeded = errors.New("导师带教名额已满")
